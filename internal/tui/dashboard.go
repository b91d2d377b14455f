package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

func (m Model) renderDashboard() string {
	dims := computeDimensions(m.width, m.height)

	header := m.renderHeader(" [Dashboard]", "m:Monitor  c:Check  Tab:History  o:Sign out  q:Quit ")
	status := m.renderStatusPanel(dims.statusW, dims.statusH)
	recent := m.renderRecentPanel(dims.recentW, dims.recentH)
	activity := m.renderActivityPanel(dims.activityW, dims.activityH)

	top := lipgloss.JoinHorizontal(lipgloss.Top, status, recent)
	layout := lipgloss.JoinVertical(lipgloss.Left, header, top, activity, m.renderStatusBar())

	if m.detailOverlay {
		layout = m.overlayDetail(layout)
	}

	return layout
}

func (m Model) renderStatusPanel(w, h int) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Status"))
	sb.WriteString("\n\n")

	unread := alerts.Unread(m.alerts)
	unreadText := fmt.Sprintf("%d", unread)
	if unread > 0 {
		unreadText = newBadgeStyle.Render(unreadText)
	}
	fmt.Fprintf(&sb, "Unread:        %s\n", unreadText)
	fmt.Fprintf(&sb, "Total:         %d\n", len(m.alerts))

	if m.status.IsMonitoring {
		fmt.Fprintf(&sb, "Monitoring:    %s\n", activeStyle.Render("ACTIVE"))
	} else {
		fmt.Fprintf(&sb, "Monitoring:    %s\n", idleStyle.Render("PAUSED"))
	}
	fmt.Fprintf(&sb, "Last checked:  %s\n", formatLastChecked(m.status.LastChecked))
	fmt.Fprintf(&sb, "Interval:      %s\n", formatInterval(m.status.Interval))
	fmt.Fprintf(&sb, "Desktop:       %s\n", permissionLabel(m.status.NotificationPermission))

	return renderBorderedPanel(sb.String(), w, h)
}

func (m Model) renderRecentPanel(w, h int) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Recent Alerts"))
	sb.WriteByte('\n')

	recent := alerts.Recent(m.alerts, m.recentLimit())
	if len(recent) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("No alerts yet"))
		return renderBorderedPanel(sb.String(), w, h)
	}

	for i, a := range recent {
		line := formatAlertLine(a, w-4)
		if i == m.alertCursor && !m.detailOverlay {
			line = cursorStyle.Render(stripAnsi(line))
		}
		sb.WriteByte('\n')
		sb.WriteString(line)
	}

	return renderBorderedPanel(sb.String(), w, h)
}

func (m Model) renderActivityPanel(w, h int) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Activity"))

	if m.activity == nil {
		return renderBorderedPanel(sb.String(), w, h)
	}

	limit := h - 3
	if limit < 1 {
		limit = 1
	}
	for _, e := range m.activity.Recent(limit) {
		line := e.Timestamp.Local().Format("15:04:05") + " " + truncate(e.Formatted, w-13)
		if e.Success != nil && !*e.Success {
			line = errorStyle.Render(line)
		}
		sb.WriteByte('\n')
		sb.WriteString(line)
	}

	return renderBorderedPanel(sb.String(), w, h)
}

// formatAlertLine renders one alert as "● 15:04 Title". The dot marks
// unread alerts.
func formatAlertLine(a alerts.Alert, w int) string {
	marker := " "
	if !a.Read {
		marker = newBadgeStyle.Render("●")
	}
	ts := a.Timestamp.Local().Format("01-02 15:04")
	title := truncate(a.Title, w-len(ts)-3)
	return marker + " " + dimStyle.Render(ts) + " " + typeStyle(a.Type).Render(title)
}

func typeStyle(t alerts.Type) lipgloss.Style {
	switch t {
	case alerts.TypeClosing:
		return closingStyle
	case alerts.TypeDelay:
		return delayStyle
	case alerts.TypeInfo:
		return infoStyle
	default:
		return lipgloss.NewStyle()
	}
}

func formatLastChecked(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("15:04:05")
}

func formatInterval(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d/time.Minute))
	}
	return fmt.Sprintf("%ds", int(d/time.Second))
}

func permissionLabel(p state.Permission) string {
	switch p {
	case state.PermissionGranted:
		return activeStyle.Render("granted")
	case state.PermissionDenied:
		return errorStyle.Render("denied")
	default:
		return dimStyle.Render(p.String())
	}
}
