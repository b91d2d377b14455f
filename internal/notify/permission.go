package notify

import (
	"context"
	"os/exec"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

// PermissionRequester asks the platform whether desktop notifications may
// be shown. It may block while a prompt is open.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) state.Permission
}

// DesktopPermission grants permission when system notifications are enabled
// and the platform notifier binary is installed.
type DesktopPermission struct {
	enabled  bool
	binary   string
	lookPath func(string) (string, error)
}

// NewDesktopPermission creates a requester for the current platform.
func NewDesktopPermission(enabled bool) *DesktopPermission {
	return &DesktopPermission{enabled: enabled, binary: platformBinary, lookPath: exec.LookPath}
}

func (p *DesktopPermission) RequestPermission(ctx context.Context) state.Permission {
	if ctx.Err() != nil {
		return state.PermissionDefault
	}
	if !p.enabled || p.binary == "" {
		return state.PermissionDenied
	}
	if _, err := p.lookPath(p.binary); err != nil {
		return state.PermissionDenied
	}
	return state.PermissionGranted
}
