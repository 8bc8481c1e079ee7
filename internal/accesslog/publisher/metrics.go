package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for access log publishing.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
	MirrorFailures  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_access_log_events_total",
			Help: "Access log events persisted by action and status",
		}, []string{"action", "status"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_access_log_dropped_total",
			Help: "Access log events dropped because the async buffer was full or closed",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_access_log_persist_failures_total",
			Help: "Access log events the store failed to persist",
		}),
		MirrorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_access_log_mirror_failures_total",
			Help: "Access log events a mirror failed to publish",
		}),
	}
}

func (m *Metrics) IncEmitted(action, status string) {
	if m != nil {
		m.Emitted.WithLabelValues(action, status).Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) IncMirrorFailures() {
	if m != nil {
		m.MirrorFailures.Inc()
	}
}
