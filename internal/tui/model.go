package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/config"
	"github.com/nixlim/hcpss-monitor/internal/events"
	"github.com/nixlim/hcpss-monitor/internal/monitor"
	"github.com/nixlim/hcpss-monitor/internal/session"
	"github.com/nixlim/hcpss-monitor/internal/settings"
)

type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewHistory
	ViewSettings
)

type tickMsg time.Time

// CycleMsg delivers a finished poll cycle to the program. Wire it with
// Controller.OnCycle and tea.Program.Send.
type CycleMsg monitor.CycleResult

// AuthPromptMsg asks the UI to show the sign-in view.
type AuthPromptMsg struct{}

type loginMsg struct {
	sess session.Session
	err  error
}

type logoutMsg struct{}

type startMsg struct{ err error }

type stopMsg struct{}

type checkMsg struct {
	res monitor.CycleResult
	err error
}

type exportMsg struct {
	path  string
	count int
	err   error
}

type savedMsg struct {
	seq      uint64
	settings settings.Settings
	err      error
}

type alertsMsg struct {
	alerts []alerts.Alert
	err    error
}

// Monitor is the polling controller as seen by the UI.
// *monitor.Controller satisfies it.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	CheckNow(ctx context.Context) (monitor.CycleResult, error)
	ApplySettings(s settings.Settings)
	State() monitor.MonitoringState
	Alerts() []alerts.Alert
	MarkRead(id int64) ([]alerts.Alert, error)
	Remove(id int64) ([]alerts.Alert, error)
}

// SessionService is *session.Manager as seen by the UI.
type SessionService interface {
	Current() (session.Session, bool)
	Login(ctx context.Context) (session.Session, error)
	Logout()
}

// SettingsStore is *settings.Service as seen by the UI.
type SettingsStore interface {
	Load(userID string) settings.Settings
	Save(userID string, s settings.Settings) (settings.Settings, error)
	Bounds() settings.Bounds
}

type ActivityProvider interface {
	Recent(n int) []events.Entry
}

// Exporter writes the collection somewhere and reports where.
type Exporter func(list []alerts.Alert) (string, error)

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config

	monitor  Monitor
	sessions SessionService
	prefs    SettingsStore
	activity ActivityProvider
	exporter Exporter
	now      func() time.Time

	user     session.User
	signedIn bool
	alerts   []alerts.Alert
	status   monitor.MonitoringState
	busy     bool
	message  string

	alertCursor      int
	historyScrollPos int

	confirmDelete bool
	deleteTarget  alerts.Alert

	detailOverlay   bool
	detailContent   string
	detailTitle     string
	detailScrollPos int

	form    settingsForm
	saveSeq uint64
	saves   *saveGate

	refreshRate time.Duration

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	m := Model{
		view:        ViewLogin,
		keys:        DefaultKeyMap(),
		cfg:         cfg,
		now:         time.Now,
		refreshRate: time.Duration(cfg.Display.RefreshRateMS) * time.Millisecond,
		saves:       &saveGate{},
	}
	if m.refreshRate <= 0 {
		m.refreshRate = 500 * time.Millisecond
	}
	m.exporter = func(list []alerts.Alert) (string, error) {
		return alerts.WriteExportFile(config.ExpandTilde(cfg.Export.Dir), list, m.now())
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.refresh()
	if m.signedIn && m.view == ViewLogin {
		m.view = ViewDashboard
	}
	if m.view == ViewSettings {
		m.openSettings()
	}
	return m
}

type ModelOption func(*Model)

func WithMonitor(mon Monitor) ModelOption {
	return func(m *Model) { m.monitor = mon }
}

func WithSessions(s SessionService) ModelOption {
	return func(m *Model) { m.sessions = s }
}

func WithSettingsStore(s SettingsStore) ModelOption {
	return func(m *Model) { m.prefs = s }
}

func WithActivity(a ActivityProvider) ModelOption {
	return func(m *Model) { m.activity = a }
}

func WithExporter(e Exporter) ModelOption {
	return func(m *Model) { m.exporter = e }
}

func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithNow(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
	)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh pulls the session, monitoring state and collection from the
// providers.
func (m *Model) refresh() {
	if m.sessions != nil {
		sess, ok := m.sessions.Current()
		m.user, m.signedIn = sess.User, ok
	}
	if m.monitor != nil {
		m.status = m.monitor.State()
		if m.signedIn {
			m.alerts = m.monitor.Alerts()
		} else {
			m.alerts = nil
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.alertCursor >= len(m.alerts) {
		m.alertCursor = len(m.alerts) - 1
	}
	if m.alertCursor < 0 {
		m.alertCursor = 0
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()

	case CycleMsg:
		m.refresh()
		if msg.Admission.Accepted {
			m.message = "New alert: " + msg.Admission.Alert.Title
		}
		return m, nil

	case AuthPromptMsg:
		m.view = ViewLogin
		m.message = "Sign in to start monitoring"
		return m, nil

	case loginMsg:
		if msg.err != nil {
			m.message = "Sign-in failed: " + msg.err.Error()
			return m, nil
		}
		m.refresh()
		m.view = ViewDashboard
		m.message = "Signed in as " + msg.sess.User.Name
		return m, nil

	case logoutMsg:
		m.refresh()
		m.view = ViewLogin
		m.busy = false
		m.message = "Signed out"
		return m, nil

	case startMsg:
		m.busy = false
		m.refresh()
		switch {
		case errors.Is(msg.err, monitor.ErrNotAuthenticated):
			m.view = ViewLogin
			m.message = "Sign in to start monitoring"
		case msg.err != nil:
			m.message = "Could not start: " + msg.err.Error()
		default:
			m.message = "Monitoring started"
		}
		return m, nil

	case stopMsg:
		m.busy = false
		m.refresh()
		m.message = "Monitoring paused"
		return m, nil

	case checkMsg:
		m.refresh()
		switch {
		case msg.err != nil:
			m.message = "Start monitoring to check for updates"
		case msg.res.Skipped:
			m.message = "A check is already running"
		case msg.res.Admission.Accepted:
			m.message = "New alert: " + msg.res.Admission.Alert.Title
		default:
			m.message = "No new alerts"
		}
		return m, nil

	case exportMsg:
		if msg.err != nil {
			m.message = "Export failed: " + msg.err.Error()
		} else {
			m.message = fmt.Sprintf("Exported %d alerts to %s", msg.count, msg.path)
		}
		return m, nil

	case savedMsg:
		if msg.seq != m.saveSeq {
			return m, nil
		}
		if msg.err != nil {
			m.message = "Settings applied but not saved: " + msg.err.Error()
		} else {
			m.message = "Settings saved"
		}
		m.form.applySaved(msg.settings)
		return m, nil

	case alertsMsg:
		if msg.err != nil {
			m.message = msg.err.Error()
			return m, nil
		}
		m.alerts = msg.alerts
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		return m.handleDeleteConfirmKey(msg)
	}

	if m.detailOverlay {
		return m.handleDetailOverlayKey(msg)
	}

	if m.view == ViewSettings && m.form.editingText() && msg.Type != tea.KeyCtrlC {
		return m.handleSettingsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.signedIn {
			m.nextView()
		}
		return m, nil
	}

	switch m.view {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	case ViewSettings:
		return m.handleSettingsKey(msg)
	}

	return m, nil
}

func (m *Model) nextView() {
	switch m.view {
	case ViewDashboard:
		m.view = ViewHistory
		m.historyScrollPos = 0
	case ViewHistory:
		m.openSettings()
	default:
		m.view = ViewDashboard
	}
}

func (m *Model) openSettings() {
	var s settings.Settings
	if m.prefs != nil {
		s = m.prefs.Load(m.user.ID)
	} else {
		s = settings.Defaults(m.bounds())
	}
	m.form = newSettingsForm(s, m.bounds())
	m.view = ViewSettings
}

func (m Model) bounds() settings.Bounds {
	if m.prefs != nil {
		return m.prefs.Bounds()
	}
	return settings.DefaultBounds()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Login) && m.sessions != nil {
		m.message = "Signing in..."
		return m, m.loginCmd()
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recent := alerts.Recent(m.alerts, m.recentLimit())

	switch {
	case key.Matches(msg, m.keys.Monitor):
		if m.busy || m.monitor == nil {
			return m, nil
		}
		m.busy = true
		if m.status.IsMonitoring {
			return m, m.stopCmd()
		}
		return m, m.startCmd()

	case key.Matches(msg, m.keys.CheckNow):
		if m.monitor == nil {
			return m, nil
		}
		m.message = "Checking for updates..."
		return m, m.checkCmd()

	case key.Matches(msg, m.keys.Logout):
		if m.sessions == nil {
			return m, nil
		}
		m.busy = true
		return m, m.logoutCmd()

	case key.Matches(msg, m.keys.Up):
		if m.alertCursor > 0 {
			m.alertCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.alertCursor < len(recent)-1 {
			m.alertCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.alertCursor >= 0 && m.alertCursor < len(recent) {
			return m.openAlert(recent[m.alertCursor])
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if m.alertCursor >= 0 && m.alertCursor < len(recent) {
			return m, m.markReadCmd(recent[m.alertCursor].ID)
		}
		return m, nil
	}

	return m, nil
}

// openAlert shows the detail overlay and marks the alert read.
func (m Model) openAlert(a alerts.Alert) (tea.Model, tea.Cmd) {
	m.detailOverlay = true
	m.detailTitle = "Alert Detail"
	m.detailContent = formatAlertDetail(a)
	m.detailScrollPos = 0
	if a.Read {
		return m, nil
	}
	return m, m.markReadCmd(a.ID)
}

func (m Model) handleDetailOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.detailOverlay = false
		m.detailContent = ""
		m.detailTitle = ""
		m.detailScrollPos = 0
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.detailScrollPos > 0 {
			m.detailScrollPos--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.detailScrollPos++
		return m, nil
	}

	return m, nil
}

func formatAlertDetail(a alerts.Alert) string {
	var lines []string
	lines = append(lines, "Title:     "+a.Title)
	lines = append(lines, "Type:      "+string(a.Type))
	lines = append(lines, "Posted:    "+a.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if a.Read {
		lines = append(lines, "Status:    read")
	} else {
		lines = append(lines, "Status:    unread")
	}
	lines = append(lines, "")
	lines = append(lines, "Message:")
	lines = append(lines, a.Message)
	return strings.Join(lines, "\n")
}

func (m Model) recentLimit() int {
	if m.cfg.Display.RecentAlerts > 0 {
		return m.cfg.Display.RecentAlerts
	}
	return 5
}

func (m Model) loginCmd() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		sess, err := sessions.Login(context.Background())
		return loginMsg{sess: sess, err: err}
	}
}

// Controller calls run as commands, off the update goroutine: Stop waits
// for the polling goroutine, which may itself be sending to the program.
func (m Model) logoutCmd() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		sessions.Logout()
		return logoutMsg{}
	}
}

func (m Model) startCmd() tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		return startMsg{err: mon.Start(context.Background())}
	}
}

func (m Model) stopCmd() tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		mon.Stop()
		return stopMsg{}
	}
}

func (m Model) checkCmd() tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		res, err := mon.CheckNow(context.Background())
		return checkMsg{res: res, err: err}
	}
}

func (m Model) markReadCmd(id int64) tea.Cmd {
	if m.monitor == nil {
		return nil
	}
	mon := m.monitor
	return func() tea.Msg {
		list, err := mon.MarkRead(id)
		return alertsMsg{alerts: list, err: err}
	}
}

func (m Model) removeCmd(id int64) tea.Cmd {
	mon := m.monitor
	return func() tea.Msg {
		list, err := mon.Remove(id)
		return alertsMsg{alerts: list, err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	list := append([]alerts.Alert(nil), m.alerts...)
	export := m.exporter
	return func() tea.Msg {
		path, err := export(list)
		return exportMsg{path: path, count: len(list), err: err}
	}
}

func (m Model) saveSettingsCmd(s settings.Settings, seq uint64) tea.Cmd {
	prefs, mon, userID, gate := m.prefs, m.monitor, m.user.ID, m.saves
	return func() tea.Msg {
		if gate != nil {
			gate.mu.Lock()
			defer gate.mu.Unlock()
			if !gate.admit(seq) {
				return savedMsg{seq: seq, settings: s}
			}
		}
		saved := s
		var err error
		if prefs != nil {
			saved, err = prefs.Save(userID, s)
		}
		if mon != nil {
			mon.ApplySettings(saved)
		}
		return savedMsg{seq: seq, settings: saved, err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var output string
	switch m.view {
	case ViewLogin:
		output = m.renderLogin()
	case ViewDashboard:
		output = m.renderDashboard()
	case ViewHistory:
		output = m.renderHistory()
	case ViewSettings:
		output = m.renderSettings()
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
