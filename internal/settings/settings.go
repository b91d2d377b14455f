// Package settings persists per-user notification preferences.
package settings

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

// Settings are one user's notification preferences.
type Settings struct {
	EmailNotifications   bool   `json:"emailNotifications"`
	DesktopNotifications bool   `json:"desktopNotifications"`
	SMSNotifications     bool   `json:"smsNotifications"`
	CheckInterval        int    `json:"checkInterval"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
}

// Interval returns CheckInterval as a duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.CheckInterval) * time.Second
}

// Bounds constrain CheckInterval, in seconds.
type Bounds struct {
	Min     int
	Max     int
	Default int
	// Step is the granularity the settings form moves in.
	Step int
}

// DefaultBounds are 30-300 seconds in steps of 30, defaulting to 60.
func DefaultBounds() Bounds {
	return Bounds{Min: 30, Max: 300, Default: 60, Step: 30}
}

// Clamp returns seconds limited to [Min, Max].
func (b Bounds) Clamp(seconds int) int {
	if seconds < b.Min {
		return b.Min
	}
	if seconds > b.Max {
		return b.Max
	}
	return seconds
}

// Defaults returns the settings of a user who has never saved any.
func Defaults(b Bounds) Settings {
	return Settings{
		EmailNotifications:   true,
		DesktopNotifications: true,
		SMSNotifications:     false,
		CheckInterval:        b.Default,
	}
}

// wireSettings distinguishes absent fields from zero values so records
// written before a field existed pick up its default.
type wireSettings struct {
	EmailNotifications   *bool   `json:"emailNotifications"`
	DesktopNotifications *bool   `json:"desktopNotifications"`
	SMSNotifications     *bool   `json:"smsNotifications"`
	CheckInterval        *int    `json:"checkInterval"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
}

func (w wireSettings) fill(s Settings) Settings {
	if w.EmailNotifications != nil {
		s.EmailNotifications = *w.EmailNotifications
	}
	if w.DesktopNotifications != nil {
		s.DesktopNotifications = *w.DesktopNotifications
	}
	if w.SMSNotifications != nil {
		s.SMSNotifications = *w.SMSNotifications
	}
	if w.CheckInterval != nil {
		s.CheckInterval = *w.CheckInterval
	}
	if w.Email != nil {
		s.Email = *w.Email
	}
	if w.Phone != nil {
		s.Phone = *w.Phone
	}
	return s
}

// Service loads and saves Settings through the key-value store.
type Service struct {
	store  state.Store
	bounds Bounds
	logger *zap.Logger
}

// NewService creates a Service. A zero Bounds selects DefaultBounds.
func NewService(store state.Store, bounds Bounds, logger *zap.Logger) *Service {
	if bounds == (Bounds{}) {
		bounds = DefaultBounds()
	}
	if bounds.Step < 1 {
		bounds.Step = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, bounds: bounds, logger: logger}
}

// Bounds returns the interval bounds the service enforces.
func (s *Service) Bounds() Bounds {
	return s.bounds
}

// Normalize clamps CheckInterval into bounds.
func (s *Service) Normalize(in Settings) Settings {
	in.CheckInterval = s.bounds.Clamp(in.CheckInterval)
	return in
}

// Load returns the user's settings. Absent or malformed records yield the
// defaults; fields missing from older records are filled from the defaults.
func (s *Service) Load(userID string) Settings {
	defaults := Defaults(s.bounds)

	raw, ok := s.store.Get(state.SettingsKey(userID))
	if !ok || raw == "" {
		return defaults
	}

	var w wireSettings
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		s.logger.Warn("malformed settings, using defaults",
			zap.String("user_id", userID), zap.Error(err))
		return defaults
	}
	return s.Normalize(w.fill(defaults))
}

// Save normalizes and persists the user's settings, returning what was stored.
func (s *Service) Save(userID string, in Settings) (Settings, error) {
	out := s.Normalize(in)

	data, err := json.Marshal(out)
	if err != nil {
		return out, fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.store.Set(state.SettingsKey(userID), string(data)); err != nil {
		s.logger.Warn("settings not persisted", zap.String("user_id", userID), zap.Error(err))
		return out, fmt.Errorf("saving settings: %w", err)
	}
	return out, nil
}
