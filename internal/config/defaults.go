package config

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DBPath: "~/.local/share/hcpss-monitor/monitor.db",
		},
		Monitor: MonitorConfig{
			DefaultIntervalSeconds: 60,
			MinIntervalSeconds:     30,
			MaxIntervalSeconds:     300,
			UpdateProbability:      0.10,
			Dedup:                  DedupTitle,
		},
		Notifications: NotificationConfig{
			SystemNotify:          true,
			AppName:               "HCPSS Alert",
			SendTimeoutSeconds:    60,
			RequestTimeoutSeconds: 30,
		},
		Email: EmailConfig{
			Provider: ProviderMock,
			FromName: "HCPSS Alert Monitor",
		},
		SMS: SMSConfig{
			Provider: ProviderMock,
		},
		Display: DisplayConfig{
			RefreshRateMS:      500,
			RecentAlerts:       5,
			ActivityBufferSize: 200,
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "~/.local/state/hcpss-monitor/monitor.log",
		},
	}
}
