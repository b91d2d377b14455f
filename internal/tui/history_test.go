package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
)

func newHistoryModel(mon *mockMonitor, opts ...ModelOption) Model {
	opts = append([]ModelOption{
		WithSessions(signedIn()),
		WithMonitor(mon),
		WithStartView(ViewHistory),
	}, opts...)
	return newTestModel(opts...)
}

func TestHistoryView_ListsAlertsNewestFirst(t *testing.T) {
	m := newHistoryModel(&mockMonitor{alerts: sampleAlerts()})

	view := m.renderHistory()

	if !strings.Contains(view, "History") {
		t.Error("history view should contain 'History' in header")
	}
	closing := strings.Index(view, "School Closing")
	delay := strings.Index(view, "School Delay - 2 Hours")
	if closing < 0 || delay < 0 {
		t.Fatalf("history view missing alerts:\n%s", view)
	}
	if closing > delay {
		t.Error("newest alert should be listed first")
	}
	if !strings.Contains(view, "2026-01-15") {
		t.Error("history view should show the received date")
	}
}

func TestHistoryView_Empty(t *testing.T) {
	m := newHistoryModel(&mockMonitor{})

	if !strings.Contains(m.renderHistory(), "No alerts received yet") {
		t.Error("empty history should say so")
	}
}

func TestHistory_Navigation(t *testing.T) {
	m := newHistoryModel(&mockMonitor{alerts: sampleAlerts()})

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.alertCursor != 2 {
		t.Errorf("cursor = %d, want clamped to 2", m.alertCursor)
	}

	m = update(m, runes("k"))
	if m.alertCursor != 1 {
		t.Errorf("cursor = %d, want 1", m.alertCursor)
	}
}

func TestHistory_MarkRead(t *testing.T) {
	mon := &mockMonitor{alerts: sampleAlerts()}
	m := newHistoryModel(mon)
	m = focusAlert(m, 2)

	m = press(t, m, runes("r"))

	if !m.alerts[2].Read {
		t.Error("alert under cursor should be marked read")
	}
	if m.alerts[0].Read {
		t.Error("other alerts should be untouched")
	}
}

func TestHistory_DeleteConfirm(t *testing.T) {
	mon := &mockMonitor{alerts: sampleAlerts()}
	m := newHistoryModel(mon)
	m = focusAlert(m, 1)

	m = update(m, runes("d"))
	if !m.confirmDelete {
		t.Fatal("delete should ask for confirmation")
	}
	if !strings.Contains(m.View(), "Delete alert?") {
		t.Error("confirmation dialog should be rendered")
	}

	m = press(t, m, runes("y"))

	if m.confirmDelete {
		t.Error("dialog should close after confirm")
	}
	if len(m.alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(m.alerts))
	}
	for _, a := range m.alerts {
		if a.ID == 2 {
			t.Error("deleted alert still present")
		}
	}
}

func TestHistory_DeleteCancel(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"n", runes("n")},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := &mockMonitor{alerts: sampleAlerts()}
			m := newHistoryModel(mon)

			m = update(m, runes("d"))
			m = press(t, m, tt.msg)

			if m.confirmDelete {
				t.Error("dialog should close")
			}
			if len(mon.alerts) != 3 {
				t.Errorf("alerts = %d, want 3 after cancel", len(mon.alerts))
			}
			if m.view != ViewHistory {
				t.Errorf("view = %d, want to stay on history", m.view)
			}
		})
	}
}

func TestHistory_Export(t *testing.T) {
	var exported []alerts.Alert
	exporter := func(list []alerts.Alert) (string, error) {
		exported = list
		return "/tmp/hcpss-alerts-2026-01-15.json", nil
	}
	m := newHistoryModel(&mockMonitor{alerts: sampleAlerts()}, WithExporter(exporter))

	m = press(t, m, runes("e"))

	if len(exported) != 3 {
		t.Errorf("exported %d alerts, want 3", len(exported))
	}
	if !strings.Contains(m.message, "Exported 3 alerts") {
		t.Errorf("message = %q", m.message)
	}
}

func TestHistory_ExportError(t *testing.T) {
	exporter := func([]alerts.Alert) (string, error) {
		return "", errors.New("permission denied")
	}
	m := newHistoryModel(&mockMonitor{alerts: sampleAlerts()}, WithExporter(exporter))

	m = press(t, m, runes("e"))

	if !strings.Contains(m.message, "Export failed") {
		t.Errorf("message = %q", m.message)
	}
}

func TestHistory_EscReturnsToDashboard(t *testing.T) {
	m := newHistoryModel(&mockMonitor{})
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != ViewDashboard {
		t.Errorf("view = %d, want ViewDashboard", m.view)
	}
}

func focusAlert(m Model, idx int) Model {
	for m.alertCursor < idx {
		m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	return m
}
