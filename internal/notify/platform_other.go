//go:build !linux && !darwin

package notify

import "go.uber.org/zap"

const platformBinary = ""

// NewPlatformNotifier returns a notifier that drops everything; there is no
// supported notification binary on this platform.
func NewPlatformNotifier(_ string, _ bool, _ *zap.Logger) Desktop {
	return nopDesktop{}
}
