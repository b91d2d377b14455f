package events

import "time"

// Kind classifies an activity entry.
type Kind string

const (
	KindChecked   Kind = "checked"
	KindAdmitted  Kind = "admitted"
	KindDuplicate Kind = "duplicate"
	KindNotified  Kind = "notified"
	KindStarted   Kind = "started"
	KindStopped   Kind = "stopped"
	KindInterval  Kind = "interval"
	KindSkipped   Kind = "skipped"
	KindError     Kind = "error"
	KindLogin     Kind = "login"
	KindLogout    Kind = "logout"
)

// Activity is a raw monitor occurrence before formatting. Only the fields
// relevant to Kind are read.
type Activity struct {
	Kind      Kind
	UserID    string
	Title     string
	Channels  []string
	Interval  time.Duration
	Err       error
	Timestamp time.Time
}

// Entry holds a display-ready activity line with metadata.
type Entry struct {
	UserID    string
	Kind      Kind
	Formatted string
	Timestamp time.Time
	Success   *bool // nil if not applicable
}
