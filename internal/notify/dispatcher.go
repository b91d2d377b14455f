package notify

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/alerts"
	"github.com/nixlim/hcpss-monitor/internal/metrics"
	"github.com/nixlim/hcpss-monitor/internal/settings"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

// Channel names used in reports, logs and metrics.
const (
	ChannelDesktop = "desktop"
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
)

// Report lists the channels a dispatch attempted. It says nothing about
// delivery.
type Report struct {
	Desktop bool
	Email   bool
	SMS     bool
}

// Any reports whether at least one channel was attempted.
func (r Report) Any() bool {
	return r.Desktop || r.Email || r.SMS
}

// Dispatcher fans an admitted alert out to every enabled channel. Desktop
// notifications are shown inline; email and SMS are sent on their own
// goroutines so a slow provider never holds up the others.
type Dispatcher struct {
	desktop Desktop
	email   EmailProvider
	sms     SMSProvider
	appName string
	timeout time.Duration
	logger  *zap.Logger
	metrics metrics.Recorder

	wg sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithDesktop(d Desktop) DispatcherOption {
	return func(x *Dispatcher) { x.desktop = d }
}

func WithEmailProvider(p EmailProvider) DispatcherOption {
	return func(x *Dispatcher) { x.email = p }
}

func WithSMSProvider(p SMSProvider) DispatcherOption {
	return func(x *Dispatcher) { x.sms = p }
}

// WithAppName sets the desktop notification title.
func WithAppName(name string) DispatcherOption {
	return func(x *Dispatcher) { x.appName = name }
}

// WithSendTimeout bounds each email or SMS send.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(x *Dispatcher) { x.timeout = d }
}

func WithMetrics(m metrics.Recorder) DispatcherOption {
	return func(x *Dispatcher) { x.metrics = m }
}

// NewDispatcher creates a Dispatcher. Channels without an explicit provider
// use the mocks.
func NewDispatcher(logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		appName: "HCPSS Alert",
		timeout: time.Minute,
		logger:  logger,
		metrics: metrics.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.desktop == nil {
		d.desktop = nopDesktop{}
	}
	if d.email == nil {
		d.email = NewMockEmailProvider(logger)
	}
	if d.sms == nil {
		d.sms = NewMockSMSProvider(logger)
	}
	return d
}

// Dispatch attempts every channel whose preconditions hold:
//
//	desktop: DesktopNotifications and perm == granted
//	email:   EmailNotifications and a non-empty Email
//	sms:     SMSNotifications and a non-empty Phone
//
// It never blocks on email or SMS delivery and never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, a alerts.Alert, s settings.Settings, perm state.Permission) Report {
	var r Report

	if s.DesktopNotifications && perm == state.PermissionGranted {
		r.Desktop = true
		d.showDesktop(a)
	} else {
		d.metrics.Notification(ChannelDesktop, metrics.ResultSkipped)
	}

	if s.EmailNotifications && s.Email != "" {
		r.Email = true
		subject, body := emailContent(a)
		d.goSend(ctx, ChannelEmail, a, func(ctx context.Context) error {
			return d.email.Send(ctx, s.Email, subject, body)
		})
	} else {
		d.metrics.Notification(ChannelEmail, metrics.ResultSkipped)
	}

	if s.SMSNotifications && s.Phone != "" {
		r.SMS = true
		content := smsContent(a)
		d.goSend(ctx, ChannelSMS, a, func(ctx context.Context) error {
			return d.sms.SendSMS(ctx, s.Phone, content)
		})
	} else {
		d.metrics.Notification(ChannelSMS, metrics.ResultSkipped)
	}

	return r
}

// Wait blocks until every in-flight email and SMS send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) showDesktop(a alerts.Alert) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("desktop notifier panicked", zap.Any("panic", p))
			d.metrics.Notification(ChannelDesktop, metrics.ResultFailed)
		}
	}()
	d.desktop.Show(Notification{
		Title:  d.appName,
		Body:   a.Title,
		Tag:    "alert-" + strconv.FormatInt(a.ID, 10),
		Urgent: a.Type == alerts.TypeClosing,
	})
	d.metrics.Notification(ChannelDesktop, metrics.ResultSent)
}

// goSend runs send detached from ctx's cancellation so stopping the monitor
// does not abort a delivery already under way; the send timeout still
// applies.
func (d *Dispatcher) goSend(ctx context.Context, channel string, a alerts.Alert, send func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				d.logger.Error("notification provider panicked", zap.String("channel", channel), zap.Any("panic", p))
				d.metrics.Notification(channel, metrics.ResultFailed)
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := send(sendCtx); err != nil {
			d.logger.Warn("notification failed",
				zap.String("channel", channel), zap.Int64("alert_id", a.ID), zap.Error(err))
			d.metrics.Notification(channel, metrics.ResultFailed)
			return
		}
		d.logger.Info("notification sent", zap.String("channel", channel), zap.Int64("alert_id", a.ID))
		d.metrics.Notification(channel, metrics.ResultSent)
	}()
}

func emailContent(a alerts.Alert) (subject, body string) {
	subject = "HCPSS Alert: " + a.Title
	body = fmt.Sprintf("<h2>%s</h2>\n<p>%s</p>\n<p><small>Posted %s</small></p>",
		html.EscapeString(a.Title),
		html.EscapeString(a.Message),
		a.Timestamp.Local().Format("Mon Jan 2 3:04 PM"))
	return subject, body
}

func smsContent(a alerts.Alert) string {
	return "HCPSS Alert: " + a.Title + ". " + a.Message
}
