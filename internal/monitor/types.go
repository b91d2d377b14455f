package monitor

import (
	"errors"
	"time"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/notify"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

var (
	// ErrNotAuthenticated is returned by Start when nobody is signed in.
	ErrNotAuthenticated = errors.New("monitoring requires a signed-in user")
	// ErrNotRunning is returned by CheckNow while monitoring is stopped.
	ErrNotRunning = errors.New("monitoring is not running")
)

// State is the controller's lifecycle state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// MonitoringState is the transient status shown to the user. It is never
// persisted.
type MonitoringState struct {
	IsMonitoring bool
	// LastChecked is zero until the first poll cycle completes.
	LastChecked            time.Time
	NotificationPermission state.Permission
	Interval               time.Duration
}

// CycleResult describes one poll cycle.
type CycleResult struct {
	UserID string
	At     time.Time
	// Skipped is set when the cycle did not run because another was in
	// flight.
	Skipped bool
	// Candidate is set when the source produced an alert.
	Candidate bool
	Admission alerts.Admission
	Report    notify.Report
	// Err is the source error, if any. A failed poll counts as an empty
	// cycle.
	Err error
}

// CycleObserver receives the result of every poll cycle.
type CycleObserver func(CycleResult)
