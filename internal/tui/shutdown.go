package tui

import (
	"context"
	"time"
)

// ShutdownManager coordinates graceful shutdown of the monitor's components.
type ShutdownManager struct {
	// DrainTimeout bounds how long in-flight notification sends and the
	// metrics listener may take to finish.
	DrainTimeout time.Duration

	// StopMonitor cancels the polling schedule and waits for a running
	// cycle to finish.
	StopMonitor func()

	// WaitNotifications blocks until email and SMS sends have returned.
	WaitNotifications func()

	// StopMetrics shuts down the metrics listener.
	StopMetrics func(ctx context.Context) error

	// Cleanup performs any additional cleanup (e.g., closing the store).
	Cleanup func()
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown stops components in dependency order:
// 1. Stop polling so no new cycles start
// 2. Wait for outstanding notifications (up to DrainTimeout)
// 3. Stop the metrics listener
// 4. Run cleanup
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
	defer cancel()

	if sm.StopMonitor != nil {
		sm.StopMonitor()
	}

	if sm.WaitNotifications != nil {
		done := make(chan struct{})
		go func() {
			sm.WaitNotifications()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	var err error
	if sm.StopMetrics != nil {
		err = sm.StopMetrics(ctx)
	}

	if sm.Cleanup != nil {
		sm.Cleanup()
	}

	return err
}
