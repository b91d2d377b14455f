// Package metrics exposes poll-cycle, admission and notification counters
// in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Poll cycle outcomes.
const (
	OutcomeEmpty     = "empty"
	OutcomeAdmitted  = "admitted"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// Notification results.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Recorder receives monitoring events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	PollCycle(outcome string)
	AlertAdmitted()
	Notification(channel, result string)
	SetUnread(n int)
}

// Prometheus records into a prometheus.Registerer.
type Prometheus struct {
	pollCycles    *prometheus.CounterVec
	admitted      prometheus.Counter
	notifications *prometheus.CounterVec
	unread        prometheus.Gauge
}

// New registers the monitor's collectors on reg.
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		pollCycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hcpss_poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		}, []string{"outcome"}),

		admitted: f.NewCounter(prometheus.CounterOpts{
			Name: "hcpss_alerts_admitted_total",
			Help: "Total number of alerts admitted into the collection",
		}),

		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hcpss_notifications_total",
			Help: "Total number of notification attempts by channel and result",
		}, []string{"channel", "result"}),

		unread: f.NewGauge(prometheus.GaugeOpts{
			Name: "hcpss_unread_alerts",
			Help: "Number of unread alerts for the signed-in user",
		}),
	}
}

func (p *Prometheus) PollCycle(outcome string) {
	p.pollCycles.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) AlertAdmitted() {
	p.admitted.Inc()
}

func (p *Prometheus) Notification(channel, result string) {
	p.notifications.WithLabelValues(channel, result).Inc()
}

func (p *Prometheus) SetUnread(n int) {
	p.unread.Set(float64(n))
}

// Nop returns a Recorder that discards everything.
func Nop() Recorder {
	return nopRecorder{}
}

type nopRecorder struct{}

func (nopRecorder) PollCycle(_ string)              {}
func (nopRecorder) AlertAdmitted()                  {}
func (nopRecorder) Notification(_ string, _ string) {}
func (nopRecorder) SetUnread(_ int)                 {}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
