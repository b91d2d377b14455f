package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}

func TestPrometheus_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PollCycle(OutcomeAdmitted)
	m.PollCycle(OutcomeEmpty)
	m.PollCycle(OutcomeEmpty)
	m.AlertAdmitted()
	m.Notification("desktop", ResultSent)
	m.Notification("sms", ResultFailed)
	m.SetUnread(3)

	body := scrape(t, reg)
	want := []string{
		`hcpss_poll_cycles_total{outcome="admitted"} 1`,
		`hcpss_poll_cycles_total{outcome="empty"} 2`,
		`hcpss_alerts_admitted_total 1`,
		`hcpss_notifications_total{channel="desktop",result="sent"} 1`,
		`hcpss_notifications_total{channel="sms",result="failed"} 1`,
		`hcpss_unread_alerts 3`,
	}
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("scrape missing %q", w)
		}
	}
}

func TestPrometheus_SeparateRegistries(t *testing.T) {
	// Two recorders on separate registries must not collide.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestNop(t *testing.T) {
	m := Nop()
	m.PollCycle(OutcomeSkipped)
	m.AlertAdmitted()
	m.Notification("email", ResultSkipped)
	m.SetUnread(0)
}
