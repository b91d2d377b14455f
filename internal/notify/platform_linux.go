//go:build linux

package notify

import "go.uber.org/zap"

const platformBinary = "notify-send"

// NewPlatformNotifier creates the platform-appropriate notifier for Linux.
func NewPlatformNotifier(appName string, enabled bool, logger *zap.Logger) Desktop {
	return NewNotifySendNotifier(appName, enabled, logger)
}
