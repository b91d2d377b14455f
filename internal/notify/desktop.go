// Package notify delivers admitted alerts over desktop, email and SMS
// channels. Every channel is best-effort: failures are logged and counted,
// never returned to the poll loop.
package notify

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Notification is what a desktop notifier displays.
type Notification struct {
	Title string
	Body  string
	// Tag identifies the notification so a repeat replaces rather than
	// stacks, e.g. "alert-1700000000000".
	Tag    string
	Urgent bool
}

// Desktop shows system notifications. Show must not block the caller.
type Desktop interface {
	Show(n Notification)
}

// commandRunner executes a notifier binary. Tests replace it to capture
// arguments without spawning processes.
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotifySendNotifier sends Linux desktop notifications via notify-send.
type NotifySendNotifier struct {
	appName string
	enabled bool
	logger  *zap.Logger
	run     commandRunner
}

// NewNotifySendNotifier creates a notify-send notifier. If enabled is false,
// notifications are silently dropped.
func NewNotifySendNotifier(appName string, enabled bool, logger *zap.Logger) *NotifySendNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifySendNotifier{appName: appName, enabled: enabled, logger: logger, run: runCommand}
}

// Show returns immediately; notify-send runs in a background goroutine.
func (n *NotifySendNotifier) Show(note Notification) {
	if !n.enabled {
		return
	}
	args := notifySendArgs(n.appName, note)
	go func() {
		if err := n.run("notify-send", args...); err != nil {
			n.logger.Warn("failed to send Linux notification", zap.String("tag", note.Tag), zap.Error(err))
		}
	}()
}

func notifySendArgs(appName string, note Notification) []string {
	urgency := "normal"
	if note.Urgent {
		urgency = "critical"
	}
	args := []string{"--urgency", urgency, "--app-name", appName}
	if note.Tag != "" {
		args = append(args, "--hint", "string:x-canonical-private-synchronous:"+note.Tag)
	}
	return append(args, note.Title, note.Body)
}

// OSAScriptNotifier sends macOS notifications via osascript.
type OSAScriptNotifier struct {
	enabled bool
	logger  *zap.Logger
	run     commandRunner
}

// NewOSAScriptNotifier creates an osascript notifier. If enabled is false,
// notifications are silently dropped.
func NewOSAScriptNotifier(enabled bool, logger *zap.Logger) *OSAScriptNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSAScriptNotifier{enabled: enabled, logger: logger, run: runCommand}
}

// Show returns immediately; osascript runs in a background goroutine.
func (n *OSAScriptNotifier) Show(note Notification) {
	if !n.enabled {
		return
	}
	script := appleScript(note.Title, "", note.Body)
	go func() {
		if err := n.run("osascript", "-e", script); err != nil {
			n.logger.Warn("failed to send macOS notification", zap.String("tag", note.Tag), zap.Error(err))
		}
	}()
}

// appleScript builds a display notification statement with every string
// escaped.
func appleScript(title, subtitle, message string) string {
	title = escapeAppleScript(title)
	subtitle = escapeAppleScript(subtitle)
	message = escapeAppleScript(message)

	if subtitle != "" {
		return fmt.Sprintf(`display notification "%s" with title "%s" subtitle "%s"`, message, title, subtitle)
	}
	return fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
}

// escapeAppleScript escapes characters that could break AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// nopDesktop is used on platforms without a supported notifier binary.
type nopDesktop struct{}

func (nopDesktop) Show(Notification) {}
