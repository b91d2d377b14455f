// Package events formats and buffers the monitor's activity log shown on
// the dashboard.
package events

import (
	"fmt"
	"strings"
	"time"
)

// FormatActivity converts an Activity into a display-ready Entry:
//   - checked:   "[user] Checked for updates: nothing new"
//   - admitted:  "[user] New alert: Title"
//   - duplicate: "[user] Already seen: Title"
//   - notified:  "[user] Notified via desktop, email"
//   - started:   "[user] Monitoring started (every 1m0s)"
func FormatActivity(a Activity) Entry {
	e := Entry{
		UserID:    a.UserID,
		Kind:      a.Kind,
		Timestamp: a.Timestamp,
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	user := shortID(a.UserID)

	switch a.Kind {
	case KindChecked:
		e.Formatted = fmt.Sprintf("[%s] Checked for updates: nothing new", user)
	case KindAdmitted:
		e.Formatted = fmt.Sprintf("[%s] New alert: %s", user, truncate(a.Title, 60))
		e.Success = boolPtr(true)
	case KindDuplicate:
		e.Formatted = fmt.Sprintf("[%s] Already seen: %s", user, truncate(a.Title, 60))
	case KindNotified:
		if len(a.Channels) == 0 {
			e.Formatted = fmt.Sprintf("[%s] No notification channels enabled", user)
		} else {
			e.Formatted = fmt.Sprintf("[%s] Notified via %s", user, strings.Join(a.Channels, ", "))
		}
	case KindStarted:
		e.Formatted = fmt.Sprintf("[%s] Monitoring started (every %s)", user, a.Interval)
	case KindStopped:
		e.Formatted = fmt.Sprintf("[%s] Monitoring stopped", user)
	case KindInterval:
		e.Formatted = fmt.Sprintf("[%s] Check interval now %s", user, a.Interval)
	case KindSkipped:
		e.Formatted = fmt.Sprintf("[%s] Check skipped: previous check still running", user)
	case KindError:
		msg := "unknown error"
		if a.Err != nil {
			msg = a.Err.Error()
		}
		e.Formatted = fmt.Sprintf("[%s] Check failed: %s", user, truncate(msg, 80))
		e.Success = boolPtr(false)
	case KindLogin:
		e.Formatted = fmt.Sprintf("[%s] Signed in", user)
	case KindLogout:
		e.Formatted = fmt.Sprintf("[%s] Signed out", user)
	default:
		e.Formatted = fmt.Sprintf("[%s] %s", user, a.Kind)
	}

	return e
}

// shortID trims "user_" and keeps the first 8 characters of what remains.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "user_")
	if id == "" {
		return "-"
	}
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncate shortens s to maxLen with ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func boolPtr(b bool) *bool {
	return &b
}
