// Package monitor runs the polling state machine: it decides when to poll,
// admits new alerts through the repository and hands them to the
// notification dispatcher exactly once.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/events"
	"github.com/nixlim/hcpss-monitor/internal/metrics"
	"github.com/nixlim/hcpss-monitor/internal/notify"
	"github.com/nixlim/hcpss-monitor/internal/session"
	"github.com/nixlim/hcpss-monitor/internal/settings"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

// SessionProvider reports who is signed in. *session.Manager satisfies it.
type SessionProvider interface {
	Current() (session.Session, bool)
}

// SettingsLoader returns a user's settings with defaults applied.
// *settings.Service satisfies it.
type SettingsLoader interface {
	Load(userID string) settings.Settings
}

// Dispatcher delivers an admitted alert. *notify.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, a alerts.Alert, s settings.Settings, perm state.Permission) notify.Report
}

// Controller owns the Stopped/Running state machine and the recurring poll
// ticker. At most one poll cycle runs at a time; a tick that arrives while a
// cycle is in flight is skipped.
type Controller struct {
	sessions   SessionProvider
	settings   SettingsLoader
	source     alerts.Source
	repo       *alerts.Repository
	dispatcher Dispatcher

	clock      Clock
	logger     *zap.Logger
	metrics    metrics.Recorder
	permission notify.PermissionRequester
	authPrompt func()
	activity   *events.RingBuffer

	inFlight atomic.Bool
	cycles   sync.WaitGroup

	mu          sync.Mutex
	state       State
	gen         uint64
	sess        session.Session
	cfg         settings.Settings
	perm        state.Permission
	lastChecked time.Time
	ticker      Ticker
	runCtx      context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	observers   []CycleObserver

	// viewMu guards the in-view collection, which is the authoritative
	// copy passed to the repository on every write.
	viewMu   sync.Mutex
	viewUser string
	view     []alerts.Alert
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithPermissionRequester is consulted on Start when desktop notifications
// are enabled and permission is still undecided.
func WithPermissionRequester(p notify.PermissionRequester) Option {
	return func(c *Controller) { c.permission = p }
}

// WithPermission sets the initial notification permission.
func WithPermission(p state.Permission) Option {
	return func(c *Controller) { c.perm = p }
}

// WithAuthPrompt is called when Start is requested without a session.
func WithAuthPrompt(fn func()) Option {
	return func(c *Controller) { c.authPrompt = fn }
}

// WithActivityLog records every cycle and lifecycle change into buf.
func WithActivityLog(buf *events.RingBuffer) Option {
	return func(c *Controller) { c.activity = buf }
}

// NewController creates a stopped Controller.
func NewController(sessions SessionProvider, prefs SettingsLoader, source alerts.Source,
	repo *alerts.Repository, dispatcher Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		sessions:   sessions,
		settings:   prefs,
		source:     source,
		repo:       repo,
		dispatcher: dispatcher,
		clock:      RealClock(),
		logger:     zap.NewNop(),
		metrics:    metrics.Nop(),
		perm:       state.PermissionDefault,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnCycle registers fn to run after every poll cycle, including skipped
// ones. Observers run on the polling goroutine before Stop can return, so
// they must not call Start or Stop themselves.
func (c *Controller) OnCycle(fn CycleObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// State returns a snapshot of the monitoring status.
func (c *Controller) State() MonitoringState {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := MonitoringState{
		IsMonitoring:           c.state == Running,
		LastChecked:            c.lastChecked,
		NotificationPermission: c.perm,
	}
	if c.state == Running {
		ms.Interval = intervalOf(c.cfg)
	}
	return ms
}

// Start moves the controller to Running. Without a session it calls the
// auth prompt and returns ErrNotAuthenticated. Otherwise it asks for
// notification permission if needed, runs one poll cycle immediately, then
// schedules a cycle every CheckInterval. Starting a running controller is a
// no-op.
func (c *Controller) Start(ctx context.Context) error {
	sess, ok := c.sessions.Current()
	if !ok {
		c.logger.Info("start requested without a session, prompting for login")
		if c.authPrompt != nil {
			c.authPrompt()
		}
		return ErrNotAuthenticated
	}
	if c.State().IsMonitoring {
		return nil
	}

	userID := sess.UserID()
	cfg := c.settings.Load(userID)

	c.mu.Lock()
	perm := c.perm
	c.mu.Unlock()
	if cfg.DesktopNotifications && perm == state.PermissionDefault && c.permission != nil {
		perm = c.permission.RequestPermission(ctx)
		c.logger.Info("notification permission requested", zap.Stringer("permission", perm))
	}

	c.mu.Lock()
	if c.state == Running {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.state = Running
	c.sess = sess
	c.cfg = cfg
	c.perm = perm
	runCtx, cancel := context.WithCancel(context.Background())
	c.runCtx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	c.ensureView(userID)
	c.logger.Info("monitoring started",
		zap.String("user_id", userID), zap.Duration("interval", intervalOf(cfg)))
	c.record(events.Activity{Kind: events.KindStarted, UserID: userID, Interval: intervalOf(cfg)})

	c.runCycle(runCtx, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running || c.gen != gen {
		return nil
	}
	c.ticker = c.clock.NewTicker(intervalOf(c.cfg))
	c.done = make(chan struct{})
	go c.loop(runCtx, gen, c.ticker, c.done)
	return nil
}

// Stop moves the controller to Stopped. The ticker is released and any
// cycle in flight has finished before Stop returns, so no cycle runs after
// it. Stopping a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	c.state = Stopped
	c.gen++
	userID := c.sess.UserID()
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	done := c.done
	c.done = nil
	c.mu.Unlock()

	if done != nil {
		<-done
	}
	c.cycles.Wait()

	c.logger.Info("monitoring stopped", zap.String("user_id", userID))
	c.record(events.Activity{Kind: events.KindStopped, UserID: userID})
}

// ApplySettings replaces the settings used by subsequent cycles. A changed
// interval reschedules the running ticker; the next cycle comes one new
// interval from now, with no extra immediate poll.
func (c *Controller) ApplySettings(s settings.Settings) {
	c.mu.Lock()
	old := c.cfg
	c.cfg = s
	userID := c.sess.UserID()
	rescheduled := c.state == Running && c.ticker != nil &&
		s.Interval() > 0 && s.Interval() != intervalOf(old)
	if rescheduled {
		c.ticker.Reset(s.Interval())
	}
	c.mu.Unlock()

	if rescheduled {
		c.logger.Info("poll interval changed",
			zap.String("user_id", userID),
			zap.Duration("from", intervalOf(old)),
			zap.Duration("to", s.Interval()))
		c.record(events.Activity{Kind: events.KindInterval, UserID: userID, Interval: s.Interval()})
	}
}

// CheckNow runs one poll cycle on demand. It shares the single-flight guard
// with scheduled ticks: if a cycle is already running the result is marked
// Skipped.
func (c *Controller) CheckNow(ctx context.Context) (CycleResult, error) {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return CycleResult{}, ErrNotRunning
	}
	gen := c.gen
	runCtx := c.runCtx
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()

	res, ran := c.runCycle(ctx, gen)
	if !ran {
		return CycleResult{}, ErrNotRunning
	}
	return res, nil
}

func (c *Controller) loop(ctx context.Context, gen uint64, t Ticker, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			c.runCycle(ctx, gen)
		}
	}
}

// runCycle executes one cycle for run gen. It reports false when the run
// has already been stopped.
func (c *Controller) runCycle(ctx context.Context, gen uint64) (CycleResult, bool) {
	c.mu.Lock()
	if c.state != Running || c.gen != gen {
		c.mu.Unlock()
		return CycleResult{}, false
	}
	userID := c.sess.UserID()
	cfg := c.cfg
	perm := c.perm
	observers := append([]CycleObserver(nil), c.observers...)

	if !c.inFlight.CompareAndSwap(false, true) {
		c.mu.Unlock()
		res := CycleResult{UserID: userID, At: c.clock.Now(), Skipped: true}
		c.logger.Debug("poll cycle skipped, previous cycle still running", zap.String("user_id", userID))
		c.metrics.PollCycle(metrics.OutcomeSkipped)
		c.record(events.Activity{Kind: events.KindSkipped, UserID: userID})
		for _, fn := range observers {
			fn(res)
		}
		return res, true
	}
	c.cycles.Add(1)
	c.mu.Unlock()

	defer c.cycles.Done()
	defer c.inFlight.Store(false)

	res := c.poll(ctx, userID, cfg, perm)

	c.mu.Lock()
	c.lastChecked = res.At
	c.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}
	return res, true
}

// poll runs source, admission and dispatch in that order.
func (c *Controller) poll(ctx context.Context, userID string, cfg settings.Settings, perm state.Permission) CycleResult {
	res := CycleResult{UserID: userID}

	candidate, ok, err := c.source.Poll(ctx)
	switch {
	case err != nil:
		res.Err = err
		c.logger.Warn("alert source failed", zap.String("user_id", userID), zap.Error(err))
		c.metrics.PollCycle(metrics.OutcomeError)
		c.record(events.Activity{Kind: events.KindError, UserID: userID, Err: err})

	case !ok:
		c.metrics.PollCycle(metrics.OutcomeEmpty)
		c.record(events.Activity{Kind: events.KindChecked, UserID: userID})

	default:
		res.Candidate = true
		candidate.Read = false
		res.Admission = c.admit(userID, candidate)
		if !res.Admission.Accepted {
			c.metrics.PollCycle(metrics.OutcomeDuplicate)
			c.record(events.Activity{Kind: events.KindDuplicate, UserID: userID, Title: candidate.Title})
			break
		}

		c.metrics.PollCycle(metrics.OutcomeAdmitted)
		c.metrics.AlertAdmitted()
		c.logger.Info("alert admitted",
			zap.String("user_id", userID),
			zap.Int64("alert_id", res.Admission.Alert.ID),
			zap.String("title", res.Admission.Alert.Title))
		c.record(events.Activity{Kind: events.KindAdmitted, UserID: userID, Title: candidate.Title})

		res.Report = c.dispatcher.Dispatch(ctx, res.Admission.Alert, cfg, perm)
		if res.Report.Any() {
			c.record(events.Activity{Kind: events.KindNotified, UserID: userID, Channels: channels(res.Report)})
		} else {
			c.logger.Debug("no notification channel enabled", zap.String("user_id", userID))
		}
	}

	res.At = c.clock.Now()
	return res
}

func (c *Controller) admit(userID string, candidate alerts.Alert) alerts.Admission {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	adm := c.repo.Admit(userID, candidate, c.viewFor(userID))
	c.view = adm.Alerts
	c.metrics.SetUnread(alerts.Unread(c.view))
	return adm
}

// Alerts returns the signed-in user's collection, newest first.
func (c *Controller) Alerts() []alerts.Alert {
	sess, ok := c.sessions.Current()
	if !ok {
		return nil
	}
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	return append([]alerts.Alert(nil), c.viewFor(sess.UserID())...)
}

// Refresh reloads the signed-in user's collection from storage.
func (c *Controller) Refresh() []alerts.Alert {
	sess, ok := c.sessions.Current()
	if !ok {
		return nil
	}
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	c.viewUser = sess.UserID()
	c.view = c.repo.Load(c.viewUser)
	c.metrics.SetUnread(alerts.Unread(c.view))
	return append([]alerts.Alert(nil), c.view...)
}

// MarkRead marks one of the signed-in user's alerts as read.
func (c *Controller) MarkRead(id int64) ([]alerts.Alert, error) {
	return c.mutate(func(userID string, view []alerts.Alert) []alerts.Alert {
		return c.repo.MarkRead(userID, id, view)
	})
}

// Remove deletes one of the signed-in user's alerts. Unknown ids are a
// no-op.
func (c *Controller) Remove(id int64) ([]alerts.Alert, error) {
	return c.mutate(func(userID string, view []alerts.Alert) []alerts.Alert {
		return c.repo.Remove(userID, id, view)
	})
}

func (c *Controller) mutate(fn func(userID string, view []alerts.Alert) []alerts.Alert) ([]alerts.Alert, error) {
	sess, ok := c.sessions.Current()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	c.view = fn(sess.UserID(), c.viewFor(sess.UserID()))
	c.metrics.SetUnread(alerts.Unread(c.view))
	return append([]alerts.Alert(nil), c.view...), nil
}

// HandleSessionEvent keeps the controller in step with login and logout.
// Register it with session.Manager.OnChange. Logout stops monitoring and
// clears the in-view collection; the persisted collection stays.
func (c *Controller) HandleSessionEvent(e session.Event) {
	switch e.Kind {
	case session.LoggedIn:
		c.Refresh()
		c.record(events.Activity{Kind: events.KindLogin, UserID: e.Session.UserID()})
	case session.LoggedOut:
		c.Stop()
		c.viewMu.Lock()
		c.viewUser = ""
		c.view = nil
		c.viewMu.Unlock()
		c.metrics.SetUnread(0)
		c.record(events.Activity{Kind: events.KindLogout, UserID: e.Session.UserID()})
	}
}

func (c *Controller) ensureView(userID string) {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	c.viewFor(userID)
	c.metrics.SetUnread(alerts.Unread(c.view))
}

// viewFor returns the in-view collection for userID, loading it when the
// view belongs to someone else or was never loaded. Caller holds viewMu.
func (c *Controller) viewFor(userID string) []alerts.Alert {
	if c.viewUser != userID || c.view == nil {
		c.viewUser = userID
		c.view = c.repo.Load(userID)
	}
	return c.view
}

func (c *Controller) record(a events.Activity) {
	if c.activity == nil {
		return
	}
	a.Timestamp = c.clock.Now()
	c.activity.Record(a)
}

// fallbackInterval applies when settings carry no usable interval.
const fallbackInterval = 60 * time.Second

func intervalOf(s settings.Settings) time.Duration {
	if d := s.Interval(); d > 0 {
		return d
	}
	return fallbackInterval
}

func channels(r notify.Report) []string {
	var out []string
	if r.Desktop {
		out = append(out, notify.ChannelDesktop)
	}
	if r.Email {
		out = append(out, notify.ChannelEmail)
	}
	if r.SMS {
		out = append(out, notify.ChannelSMS)
	}
	return out
}
