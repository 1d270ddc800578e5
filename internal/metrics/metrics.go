// Package metrics exposes prometheus collectors for attendance activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	checkIns        *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	liveSubscribers prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "checkins_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "sessions_created_total",
			Help:      "Attendance sessions opened.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "sessions_ended_total",
			Help:      "Attendance sessions ended, by reason.",
		}, []string{"reason"}),
		liveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "attendance",
			Name:      "live_subscribers",
			Help:      "Open live-feed websocket connections.",
		}),
	}
	reg.MustRegister(m.checkIns, m.sessionsCreated, m.sessionsEnded, m.liveSubscribers)
	return m
}

func (m *Metrics) CheckIn(outcome string) {
	if m != nil {
		m.checkIns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SessionCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

func (m *Metrics) SessionEnded(reason string) {
	if m != nil {
		m.sessionsEnded.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) LiveSubscribers(delta float64) {
	if m != nil {
		m.liveSubscribers.Add(delta)
	}
}
