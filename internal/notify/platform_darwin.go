//go:build darwin

package notify

import "go.uber.org/zap"

const platformBinary = "osascript"

// NewPlatformNotifier creates the platform-appropriate notifier for macOS.
func NewPlatformNotifier(_ string, enabled bool, logger *zap.Logger) Desktop {
	return NewOSAScriptNotifier(enabled, logger)
}
