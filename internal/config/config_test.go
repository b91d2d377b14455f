package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParser_Defaults(t *testing.T) {
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing config file, got: %v", err)
	}

	cfg := result.Config

	if cfg.Monitor.DefaultIntervalSeconds != 60 {
		t.Errorf("default default_interval_seconds: want 60, got %d", cfg.Monitor.DefaultIntervalSeconds)
	}
	if cfg.Monitor.MinIntervalSeconds != 30 {
		t.Errorf("default min_interval_seconds: want 30, got %d", cfg.Monitor.MinIntervalSeconds)
	}
	if cfg.Monitor.MaxIntervalSeconds != 300 {
		t.Errorf("default max_interval_seconds: want 300, got %d", cfg.Monitor.MaxIntervalSeconds)
	}
	if cfg.Monitor.UpdateProbability != 0.10 {
		t.Errorf("default update_probability: want 0.10, got %f", cfg.Monitor.UpdateProbability)
	}
	if cfg.Monitor.Dedup != DedupTitle {
		t.Errorf("default dedup: want %q, got %q", DedupTitle, cfg.Monitor.Dedup)
	}
	if !cfg.Notifications.SystemNotify {
		t.Error("default system_notify: want true, got false")
	}
	if cfg.Notifications.AppName != "HCPSS Alert" {
		t.Errorf("default app_name: want %q, got %q", "HCPSS Alert", cfg.Notifications.AppName)
	}
	if cfg.Email.Provider != ProviderMock {
		t.Errorf("default email provider: want mock, got %q", cfg.Email.Provider)
	}
	if cfg.SMS.Provider != ProviderMock {
		t.Errorf("default sms provider: want mock, got %q", cfg.SMS.Provider)
	}
	if cfg.Display.RecentAlerts != 5 {
		t.Errorf("default recent_alerts: want 5, got %d", cfg.Display.RecentAlerts)
	}
	if cfg.Display.RefreshRateMS != 500 {
		t.Errorf("default refresh_rate_ms: want 500, got %d", cfg.Display.RefreshRateMS)
	}
	if cfg.Storage.DBPath == "" {
		t.Error("default db_path should not be empty")
	}
	if cfg.Metrics.Listen != "" {
		t.Errorf("metrics should be disabled by default, got listen=%q", cfg.Metrics.Listen)
	}

	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings for missing file, got %v", result.Warnings)
	}
}

func TestConfigParser_PartialConfig(t *testing.T) {
	tomlData := `
[monitor]
default_interval_seconds = 120

[notifications]
system_notify = false
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := result.Config

	if cfg.Monitor.DefaultIntervalSeconds != 120 {
		t.Errorf("default_interval_seconds: want 120, got %d", cfg.Monitor.DefaultIntervalSeconds)
	}
	if cfg.Notifications.SystemNotify {
		t.Error("system_notify: want false, got true")
	}

	if cfg.Monitor.MinIntervalSeconds != 30 {
		t.Errorf("min_interval_seconds should be preserved: want 30, got %d", cfg.Monitor.MinIntervalSeconds)
	}
	if cfg.Notifications.AppName != "HCPSS Alert" {
		t.Errorf("app_name should be preserved, got %q", cfg.Notifications.AppName)
	}
	if cfg.Notifications.SendTimeoutSeconds != 60 || cfg.Notifications.RequestTimeoutSeconds != 30 {
		t.Errorf("timeouts should be preserved: got send=%d request=%d",
			cfg.Notifications.SendTimeoutSeconds, cfg.Notifications.RequestTimeoutSeconds)
	}
	if cfg.Display.ActivityBufferSize != 200 {
		t.Errorf("activity_buffer_size should be preserved: want 200, got %d", cfg.Display.ActivityBufferSize)
	}
}

func TestConfigParser_NotificationTimeouts(t *testing.T) {
	result, err := LoadFromString(`
[notifications]
send_timeout_seconds = 15
request_timeout_seconds = 5
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := result.Config.Notifications
	if n.SendTimeoutSeconds != 15 {
		t.Errorf("send_timeout_seconds: want 15, got %d", n.SendTimeoutSeconds)
	}
	if n.RequestTimeoutSeconds != 5 {
		t.Errorf("request_timeout_seconds: want 5, got %d", n.RequestTimeoutSeconds)
	}
	if !n.SystemNotify {
		t.Error("system_notify default should be preserved")
	}
}

func TestConfigParser_BrevoProviders(t *testing.T) {
	tomlData := `
[email]
provider = "brevo"
api_key = "xkeysib-test"
from_address = "alerts@example.com"

[sms]
provider = "brevo"
api_key = "xkeysib-test"
sender = "HCPSS"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Email.Provider != ProviderBrevo {
		t.Errorf("email provider: want brevo, got %q", result.Config.Email.Provider)
	}
	if result.Config.Email.FromName != "HCPSS Alert Monitor" {
		t.Errorf("from_name default should be preserved, got %q", result.Config.Email.FromName)
	}
	if result.Config.SMS.Sender != "HCPSS" {
		t.Errorf("sms sender: want HCPSS, got %q", result.Config.SMS.Sender)
	}
}

func TestConfigParser_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "zero min interval",
			toml: `[monitor]
min_interval_seconds = 0`,
		},
		{
			name: "max below min",
			toml: `[monitor]
min_interval_seconds = 60
max_interval_seconds = 30
default_interval_seconds = 60`,
		},
		{
			name: "default outside bounds",
			toml: `[monitor]
default_interval_seconds = 10`,
		},
		{
			name: "probability over 1",
			toml: `[monitor]
update_probability = 1.5`,
		},
		{
			name: "unknown dedup policy",
			toml: `[monitor]
dedup = "hash"`,
		},
		{
			name: "unknown email provider",
			toml: `[email]
provider = "carrier-pigeon"`,
		},
		{
			name: "brevo email without key",
			toml: `[email]
provider = "brevo"
from_address = "a@example.com"`,
		},
		{
			name: "brevo sms without sender",
			toml: `[sms]
provider = "brevo"
api_key = "k"`,
		},
		{
			name: "zero refresh rate",
			toml: `[display]
refresh_rate_ms = 0`,
		},
		{
			name: "bad log level",
			toml: `[logging]
level = "verbose"`,
		},
		{
			name: "empty app name",
			toml: `[notifications]
app_name = ""`,
		},
		{
			name: "zero send timeout",
			toml: `[notifications]
send_timeout_seconds = 0`,
		},
		{
			name: "negative request timeout",
			toml: `[notifications]
request_timeout_seconds = -5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.toml)
			if err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigParser_MultipleErrorsReported(t *testing.T) {
	_, err := LoadFromString(`
[display]
refresh_rate_ms = 0
recent_alerts = 0
`)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "refresh_rate_ms") || !strings.Contains(err.Error(), "recent_alerts") {
		t.Errorf("error should list every invalid key, got: %v", err)
	}
}

func TestConfigParser_UnknownKey(t *testing.T) {
	tomlData := `
[monitor]
default_interval_seconds = 90

[mysterious_section]
foo = "bar"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unknown keys should not cause errors, got: %v", err)
	}

	found := false
	for _, w := range result.Warnings {
		if w == `unknown config key: "mysterious_section"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning for mysterious_section, got %v", result.Warnings)
	}
	if result.Config.Monitor.DefaultIntervalSeconds != 90 {
		t.Errorf("known keys should still load: want 90, got %d", result.Config.Monitor.DefaultIntervalSeconds)
	}
}

func TestConfigParser_Malformed(t *testing.T) {
	if _, err := LoadFromString("[monitor\ndedup ="); err == nil {
		t.Error("expected parse error for malformed TOML")
	}
}

func TestConfigParser_FileLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	tomlContent := `
[storage]
db_path = ""

[metrics]
listen = "127.0.0.1:9464"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("writing test config file: %v", err)
	}

	result, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Config.Storage.DBPath != "" {
		t.Errorf("db_path from file: want empty, got %q", result.Config.Storage.DBPath)
	}
	if result.Config.Metrics.Listen != "127.0.0.1:9464" {
		t.Errorf("metrics listen from file: got %q", result.Config.Metrics.Listen)
	}
	if result.Config.Monitor.DefaultIntervalSeconds != 60 {
		t.Errorf("default_interval_seconds default: want 60, got %d", result.Config.Monitor.DefaultIntervalSeconds)
	}
}

func TestConfigParser_EmptyString(t *testing.T) {
	result, err := LoadFromString("")
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if result.Config.Monitor.DefaultIntervalSeconds != 60 {
		t.Errorf("default_interval_seconds: want 60, got %d", result.Config.Monitor.DefaultIntervalSeconds)
	}
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~/x.db", filepath.Join(home, "x.db")},
		{"~/.local/state/hcpss-monitor/monitor.log", filepath.Join(home, ".local", "state", "hcpss-monitor", "monitor.log")},
		{"/abs/path.db", "/abs/path.db"},
		{"relative/x.db", "relative/x.db"},
		{"~user/x.db", "~user/x.db"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
