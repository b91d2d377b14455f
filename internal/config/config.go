package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Storage       StorageConfig
	Monitor       MonitorConfig
	Notifications NotificationConfig
	Email         EmailConfig
	SMS           SMSConfig
	Display       DisplayConfig
	Export        ExportConfig
	Metrics       MetricsConfig
	Logging       LoggingConfig
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type MonitorConfig struct {
	DefaultIntervalSeconds int     `toml:"default_interval_seconds"`
	MinIntervalSeconds     int     `toml:"min_interval_seconds"`
	MaxIntervalSeconds     int     `toml:"max_interval_seconds"`
	UpdateProbability      float64 `toml:"update_probability"`
	Dedup                  string  `toml:"dedup"`
}

type NotificationConfig struct {
	SystemNotify          bool   `toml:"system_notify"`
	AppName               string `toml:"app_name"`
	SendTimeoutSeconds    int    `toml:"send_timeout_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

type EmailConfig struct {
	Provider    string `toml:"provider"`
	APIKey      string `toml:"api_key"`
	FromAddress string `toml:"from_address"`
	FromName    string `toml:"from_name"`
}

type SMSConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Sender   string `toml:"sender"`
}

type DisplayConfig struct {
	RefreshRateMS      int `toml:"refresh_rate_ms"`
	RecentAlerts       int `toml:"recent_alerts"`
	ActivityBufferSize int `toml:"activity_buffer_size"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Provider names accepted by [email] and [sms].
const (
	ProviderMock  = "mock"
	ProviderBrevo = "brevo"
)

// Dedup policies accepted by [monitor] dedup.
const (
	DedupTitle = "title"
	DedupID    = "id"
)

type LoadResult struct {
	Config   Config
	Warnings []string
}

var knownTopLevel = map[string]bool{
	"storage":       true,
	"monitor":       true,
	"notifications": true,
	"email":         true,
	"sms":           true,
	"display":       true,
	"export":        true,
	"metrics":       true,
	"logging":       true,
}

// DefaultPath returns ~/.config/hcpss-monitor/config.toml, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hcpss-monitor", "config.toml")
}

// ExpandTilde replaces a leading "~/" with the user's home directory.
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the TOML file at path. A missing file yields the defaults.
func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return result, nil
}

func LoadFromString(data string) (*LoadResult, error) {
	if data == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}
	result, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return result, nil
}

func parse(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, err
	}

	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, err
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	Storage       *StorageConfig      `toml:"storage"`
	Monitor       *MonitorConfig      `toml:"monitor"`
	Notifications *NotificationConfig `toml:"notifications"`
	Email         *EmailConfig        `toml:"email"`
	SMS           *SMSConfig          `toml:"sms"`
	Display       *DisplayConfig      `toml:"display"`
	Export        *ExportConfig       `toml:"export"`
	Metrics       *MetricsConfig      `toml:"metrics"`
	Logging       *LoggingConfig      `toml:"logging"`
}

// mergeFromRaw copies only the keys actually present in the file, so a
// partial section never zeroes the defaults of its siblings.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
		}
	}
	if tf.Monitor != nil {
		if section, ok := rawSection(raw, "monitor"); ok {
			if _, exists := section["default_interval_seconds"]; exists {
				cfg.Monitor.DefaultIntervalSeconds = tf.Monitor.DefaultIntervalSeconds
			}
			if _, exists := section["min_interval_seconds"]; exists {
				cfg.Monitor.MinIntervalSeconds = tf.Monitor.MinIntervalSeconds
			}
			if _, exists := section["max_interval_seconds"]; exists {
				cfg.Monitor.MaxIntervalSeconds = tf.Monitor.MaxIntervalSeconds
			}
			if _, exists := section["update_probability"]; exists {
				cfg.Monitor.UpdateProbability = tf.Monitor.UpdateProbability
			}
			if _, exists := section["dedup"]; exists {
				cfg.Monitor.Dedup = tf.Monitor.Dedup
			}
		}
	}
	if tf.Notifications != nil {
		if section, ok := rawSection(raw, "notifications"); ok {
			if _, exists := section["system_notify"]; exists {
				cfg.Notifications.SystemNotify = tf.Notifications.SystemNotify
			}
			if _, exists := section["app_name"]; exists {
				cfg.Notifications.AppName = tf.Notifications.AppName
			}
			if _, exists := section["send_timeout_seconds"]; exists {
				cfg.Notifications.SendTimeoutSeconds = tf.Notifications.SendTimeoutSeconds
			}
			if _, exists := section["request_timeout_seconds"]; exists {
				cfg.Notifications.RequestTimeoutSeconds = tf.Notifications.RequestTimeoutSeconds
			}
		}
	}
	if tf.Email != nil {
		if section, ok := rawSection(raw, "email"); ok {
			if _, exists := section["provider"]; exists {
				cfg.Email.Provider = tf.Email.Provider
			}
			if _, exists := section["api_key"]; exists {
				cfg.Email.APIKey = tf.Email.APIKey
			}
			if _, exists := section["from_address"]; exists {
				cfg.Email.FromAddress = tf.Email.FromAddress
			}
			if _, exists := section["from_name"]; exists {
				cfg.Email.FromName = tf.Email.FromName
			}
		}
	}
	if tf.SMS != nil {
		if section, ok := rawSection(raw, "sms"); ok {
			if _, exists := section["provider"]; exists {
				cfg.SMS.Provider = tf.SMS.Provider
			}
			if _, exists := section["api_key"]; exists {
				cfg.SMS.APIKey = tf.SMS.APIKey
			}
			if _, exists := section["sender"]; exists {
				cfg.SMS.Sender = tf.SMS.Sender
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["refresh_rate_ms"]; exists {
				cfg.Display.RefreshRateMS = tf.Display.RefreshRateMS
			}
			if _, exists := section["recent_alerts"]; exists {
				cfg.Display.RecentAlerts = tf.Display.RecentAlerts
			}
			if _, exists := section["activity_buffer_size"]; exists {
				cfg.Display.ActivityBufferSize = tf.Display.ActivityBufferSize
			}
		}
	}
	if tf.Export != nil {
		if section, ok := rawSection(raw, "export"); ok {
			if _, exists := section["dir"]; exists {
				cfg.Export.Dir = tf.Export.Dir
			}
		}
	}
	if tf.Metrics != nil {
		if section, ok := rawSection(raw, "metrics"); ok {
			if _, exists := section["listen"]; exists {
				cfg.Metrics.Listen = tf.Metrics.Listen
			}
		}
	}
	if tf.Logging != nil {
		if section, ok := rawSection(raw, "logging"); ok {
			if _, exists := section["level"]; exists {
				cfg.Logging.Level = tf.Logging.Level
			}
			if _, exists := section["file"]; exists {
				cfg.Logging.File = tf.Logging.File
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	mon := cfg.Monitor
	if mon.MinIntervalSeconds < 1 {
		errs = append(errs, fmt.Sprintf("min_interval_seconds must be positive, got %d", mon.MinIntervalSeconds))
	}
	if mon.MaxIntervalSeconds < mon.MinIntervalSeconds {
		errs = append(errs, fmt.Sprintf("max_interval_seconds (%d) must be >= min_interval_seconds (%d)", mon.MaxIntervalSeconds, mon.MinIntervalSeconds))
	}
	if mon.DefaultIntervalSeconds < mon.MinIntervalSeconds || mon.DefaultIntervalSeconds > mon.MaxIntervalSeconds {
		errs = append(errs, fmt.Sprintf("default_interval_seconds must be %d-%d, got %d", mon.MinIntervalSeconds, mon.MaxIntervalSeconds, mon.DefaultIntervalSeconds))
	}
	if mon.UpdateProbability < 0 || mon.UpdateProbability > 1 {
		errs = append(errs, fmt.Sprintf("update_probability must be 0-1, got %f", mon.UpdateProbability))
	}
	if mon.Dedup != DedupTitle && mon.Dedup != DedupID {
		errs = append(errs, fmt.Sprintf("dedup must be %q or %q, got %q", DedupTitle, DedupID, mon.Dedup))
	}

	if cfg.Notifications.AppName == "" {
		errs = append(errs, "notifications app_name must not be empty")
	}
	if cfg.Notifications.SendTimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("send_timeout_seconds must be positive, got %d", cfg.Notifications.SendTimeoutSeconds))
	}
	if cfg.Notifications.RequestTimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("request_timeout_seconds must be positive, got %d", cfg.Notifications.RequestTimeoutSeconds))
	}

	switch cfg.Email.Provider {
	case ProviderMock:
	case ProviderBrevo:
		if cfg.Email.APIKey == "" {
			errs = append(errs, "email api_key is required for the brevo provider")
		}
		if cfg.Email.FromAddress == "" {
			errs = append(errs, "email from_address is required for the brevo provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("email provider must be %q or %q, got %q", ProviderMock, ProviderBrevo, cfg.Email.Provider))
	}

	switch cfg.SMS.Provider {
	case ProviderMock:
	case ProviderBrevo:
		if cfg.SMS.APIKey == "" {
			errs = append(errs, "sms api_key is required for the brevo provider")
		}
		if cfg.SMS.Sender == "" {
			errs = append(errs, "sms sender is required for the brevo provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("sms provider must be %q or %q, got %q", ProviderMock, ProviderBrevo, cfg.SMS.Provider))
	}

	if cfg.Display.RefreshRateMS < 1 {
		errs = append(errs, fmt.Sprintf("refresh_rate_ms must be positive, got %d", cfg.Display.RefreshRateMS))
	}
	if cfg.Display.RecentAlerts < 1 {
		errs = append(errs, fmt.Sprintf("recent_alerts must be positive, got %d", cfg.Display.RecentAlerts))
	}
	if cfg.Display.ActivityBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("activity_buffer_size must be positive, got %d", cfg.Display.ActivityBufferSize))
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging level must be debug, info, warn or error, got %q", cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
