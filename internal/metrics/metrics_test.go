package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CheckIn("success")
	m.CheckIn("success")
	m.CheckIn("rejected")
	m.SessionCreated()
	m.SessionEnded("expired")
	m.LiveSubscribers(1)
	m.LiveSubscribers(1)
	m.LiveSubscribers(-1)

	if got := testutil.ToFloat64(m.checkIns.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successful check-ins, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsEnded.WithLabelValues("expired")); got != 1 {
		t.Fatalf("expected 1 expired session, got %v", got)
	}
	if got := testutil.ToFloat64(m.liveSubscribers); got != 1 {
		t.Fatalf("expected 1 live subscriber, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.CheckIn("failed")
	m.SessionCreated()
	m.SessionEnded("manual")
	m.LiveSubscribers(1)
}
