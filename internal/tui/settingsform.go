package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/hcpss-monitor/internal/settings"
)

type formField int

const (
	fieldDesktop formField = iota
	fieldEmailToggle
	fieldSMSToggle
	fieldInterval
	fieldEmail
	fieldPhone
	fieldSave
	fieldCount
)

// settingsForm is the editable copy of a user's settings. Toggles and
// interval steps are saved as they change; the text fields are saved when
// they lose focus. saved is the last value handed to the store.
type settingsForm struct {
	desktop  bool
	email    bool
	sms      bool
	interval int
	bounds   settings.Bounds
	saved    settings.Settings

	emailInput textinput.Model
	phoneInput textinput.Model

	focus formField
}

func newSettingsForm(s settings.Settings, b settings.Bounds) settingsForm {
	emailInput := textinput.New()
	emailInput.Placeholder = "parent@example.com"
	emailInput.CharLimit = 254
	emailInput.Prompt = ""
	emailInput.SetValue(s.Email)

	phoneInput := textinput.New()
	phoneInput.Placeholder = "+1 410 555 0100"
	phoneInput.CharLimit = 32
	phoneInput.Prompt = ""
	phoneInput.SetValue(s.Phone)

	return settingsForm{
		desktop:    s.DesktopNotifications,
		email:      s.EmailNotifications,
		sms:        s.SMSNotifications,
		interval:   s.CheckInterval,
		bounds:     b,
		saved:      s,
		emailInput: emailInput,
		phoneInput: phoneInput,
	}
}

// applySaved takes the stored result of a save. A text field that still has
// focus keeps what the user is typing.
func (f *settingsForm) applySaved(s settings.Settings) {
	f.desktop = s.DesktopNotifications
	f.email = s.EmailNotifications
	f.sms = s.SMSNotifications
	f.interval = s.CheckInterval
	f.saved = s
	if f.focus != fieldEmail {
		f.emailInput.SetValue(s.Email)
	}
	if f.focus != fieldPhone {
		f.phoneInput.SetValue(s.Phone)
	}
}

func (f settingsForm) result() settings.Settings {
	return settings.Settings{
		DesktopNotifications: f.desktop,
		EmailNotifications:   f.email,
		SMSNotifications:     f.sms,
		CheckInterval:        f.interval,
		Email:                strings.TrimSpace(f.emailInput.Value()),
		Phone:                strings.TrimSpace(f.phoneInput.Value()),
	}
}

func (f settingsForm) editingText() bool {
	return f.focus == fieldEmail || f.focus == fieldPhone
}

func (f *settingsForm) setFocus(field formField) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	f.emailInput.Blur()
	f.phoneInput.Blur()
	switch f.focus {
	case fieldEmail:
		return f.emailInput.Focus()
	case fieldPhone:
		return f.phoneInput.Focus()
	}
	return nil
}

// stepInterval moves the interval by one step in dir, staying in bounds.
func (f *settingsForm) stepInterval(dir int) {
	step := f.bounds.Step
	if step <= 0 {
		step = 30
	}
	f.interval = f.bounds.Clamp(f.interval + dir*step)
}

// saveGate serialises saves. Every save command runs on its own goroutine,
// so one that finds a newer save already written is dropped.
type saveGate struct {
	mu      sync.Mutex
	written uint64
}

// admit reports whether the save numbered seq may be written. The caller
// holds g.mu.
func (g *saveGate) admit(seq uint64) bool {
	if seq < g.written {
		return false
	}
	g.written = seq
	return true
}

// commitSettings saves the form when it differs from what was last saved,
// or unconditionally when force is set.
func (m *Model) commitSettings(force bool) tea.Cmd {
	s := m.form.result()
	if !force && s == m.form.saved {
		return nil
	}
	m.form.saved = s
	m.saveSeq++
	m.message = "Saving..."
	return m.saveSettingsCmd(s, m.saveSeq)
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.form

	if key.Matches(msg, m.keys.Save) {
		cmd := m.commitSettings(true)
		return m, cmd
	}

	if f.editingText() {
		var focusCmd tea.Cmd
		switch msg.Type {
		case tea.KeyUp, tea.KeyShiftTab:
			focusCmd = f.setFocus(f.focus - 1)
		case tea.KeyDown, tea.KeyTab, tea.KeyEnter:
			focusCmd = f.setFocus(f.focus + 1)
		case tea.KeyEsc:
			focusCmd = f.setFocus(fieldSave)
		default:
			var cmd tea.Cmd
			if f.focus == fieldEmail {
				f.emailInput, cmd = f.emailInput.Update(msg)
			} else {
				f.phoneInput, cmd = f.phoneInput.Update(msg)
			}
			return m, cmd
		}
		saveCmd := m.commitSettings(false)
		return m, tea.Batch(focusCmd, saveCmd)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		cmd := m.commitSettings(false)
		m.view = ViewDashboard
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		cmd := f.setFocus(f.focus - 1)
		return m, cmd

	case key.Matches(msg, m.keys.Down):
		cmd := f.setFocus(f.focus + 1)
		return m, cmd

	case key.Matches(msg, m.keys.Left):
		if f.focus == fieldInterval {
			f.stepInterval(-1)
			cmd := m.commitSettings(false)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if f.focus == fieldInterval {
			f.stepInterval(1)
			cmd := m.commitSettings(false)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		switch f.focus {
		case fieldDesktop:
			f.desktop = !f.desktop
		case fieldEmailToggle:
			f.email = !f.email
		case fieldSMSToggle:
			f.sms = !f.sms
		case fieldSave:
			cmd := m.commitSettings(true)
			return m, cmd
		}
		cmd := m.commitSettings(false)
		return m, cmd
	}

	return m, nil
}

func (m Model) renderSettings() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader(" [Settings]", "↑↓:Move  Space:Toggle  ←→:Interval  Ctrl+S:Save  Esc:Back "))
	sb.WriteString("\n\n")

	f := m.form
	row := func(field formField, label, value string) {
		line := fmt.Sprintf("  %-24s %s", label, value)
		if f.focus == field {
			line = cursorStyle.Render(stripAnsi(line))
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	row(fieldDesktop, "Desktop notifications", checkbox(f.desktop))
	row(fieldEmailToggle, "Email notifications", checkbox(f.email))
	row(fieldSMSToggle, "SMS notifications", checkbox(f.sms))
	row(fieldInterval, "Check interval", fmt.Sprintf("< %ds >", f.interval))
	row(fieldEmail, "Email address", f.emailInput.View())
	row(fieldPhone, "Phone number", f.phoneInput.View())
	sb.WriteByte('\n')
	row(fieldSave, "[ Save ]", "")

	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  Interval range %d-%ds in steps of %d.",
		f.bounds.Min, f.bounds.Max, f.bounds.Step)))
	if f.email && strings.TrimSpace(f.emailInput.Value()) == "" {
		sb.WriteByte('\n')
		sb.WriteString(idleStyle.Render("  Email is enabled but no address is set."))
	}
	if f.sms && strings.TrimSpace(f.phoneInput.Value()) == "" {
		sb.WriteByte('\n')
		sb.WriteString(idleStyle.Render("  SMS is enabled but no phone number is set."))
	}
	sb.WriteByte('\n')
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
