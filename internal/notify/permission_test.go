package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

func TestDesktopPermission(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/notify-send", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name     string
		enabled  bool
		binary   string
		lookPath func(string) (string, error)
		want     state.Permission
	}{
		{"granted", true, "notify-send", found, state.PermissionGranted},
		{"disabled in config", false, "notify-send", found, state.PermissionDenied},
		{"binary missing", true, "notify-send", missing, state.PermissionDenied},
		{"unsupported platform", true, "", found, state.PermissionDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &DesktopPermission{enabled: tc.enabled, binary: tc.binary, lookPath: tc.lookPath}
			if got := p.RequestPermission(context.Background()); got != tc.want {
				t.Errorf("RequestPermission = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDesktopPermission_CancelledPrompt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewDesktopPermission(true)
	if got := p.RequestPermission(ctx); got != state.PermissionDefault {
		t.Errorf("cancelled request = %v, want default", got)
	}
}
