package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
)

func (m Model) renderHistory() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader(" [History]", "Enter:Open  r:Read  d:Delete  e:Export  Tab:Settings  q:Quit "))
	sb.WriteByte('\n')

	if len(m.alerts) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  No alerts received yet"))
		sb.WriteByte('\n')
		return m.decorateHistory(sb.String())
	}

	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "    %-17s %-9s %s", "Received", "Type", "Title")
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 68)))
	sb.WriteByte('\n')

	visibleH := m.height - 6
	if visibleH < 1 {
		visibleH = 1
	}
	startIdx := m.historyScrollPos
	if m.alertCursor < startIdx {
		startIdx = m.alertCursor
	}
	if m.alertCursor >= startIdx+visibleH {
		startIdx = m.alertCursor - visibleH + 1
	}
	if startIdx > len(m.alerts)-visibleH {
		startIdx = len(m.alerts) - visibleH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + visibleH
	if endIdx > len(m.alerts) {
		endIdx = len(m.alerts)
	}

	titleW := m.width - 34
	if titleW < 10 {
		titleW = 10
	}
	for i := startIdx; i < endIdx; i++ {
		a := m.alerts[i]
		marker := "  "
		if !a.Read {
			marker = newBadgeStyle.Render("● ")
		}
		row := fmt.Sprintf("%-17s %-9s %s",
			a.Timestamp.Local().Format("2006-01-02 15:04"),
			string(a.Type),
			truncate(a.Title, titleW))
		if i == m.alertCursor {
			row = cursorStyle.Render(row)
		} else {
			row = typeStyle(a.Type).Render(row)
		}
		sb.WriteString("  " + marker + row)
		sb.WriteByte('\n')
	}

	sb.WriteString(m.renderStatusBar())
	return m.decorateHistory(sb.String())
}

func (m Model) decorateHistory(layout string) string {
	if m.confirmDelete {
		layout = m.overlayDeleteDialog(layout)
	}
	if m.detailOverlay {
		layout = m.overlayDetail(layout)
	}
	return layout
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.view = ViewDashboard
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.alertCursor > 0 {
			m.alertCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.alertCursor < len(m.alerts)-1 {
			m.alertCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if a, ok := m.selectedAlert(); ok {
			return m.openAlert(a)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if a, ok := m.selectedAlert(); ok && !a.Read {
			return m, m.markReadCmd(a.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if a, ok := m.selectedAlert(); ok && m.monitor != nil {
			m.confirmDelete = true
			m.deleteTarget = a
		}
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if m.exporter == nil {
			return m, nil
		}
		m.message = "Exporting..."
		return m, m.exportCmd()
	}

	return m, nil
}

func (m Model) handleDeleteConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.deleteTarget.ID
		m.confirmDelete = false
		m.message = "Deleted: " + m.deleteTarget.Title
		return m, m.removeCmd(id)

	case key.Matches(msg, m.keys.Deny), key.Matches(msg, m.keys.Escape):
		m.confirmDelete = false
		return m, nil
	}

	return m, nil
}

func (m Model) selectedAlert() (alert alerts.Alert, ok bool) {
	if m.alertCursor < 0 || m.alertCursor >= len(m.alerts) {
		return alert, false
	}
	return m.alerts[m.alertCursor], true
}
