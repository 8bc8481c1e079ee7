package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Deliveries         *prometheus.CounterVec
	DeliveryLatency    *prometheus.HistogramVec
	QueueDropped       prometheus.Counter
	BreakerTransitions *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_email_deliveries_total",
			Help: "Email delivery attempts by provider, kind and status",
		}, []string{"provider", "kind", "status"}),
		DeliveryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "empverify_email_delivery_duration_seconds",
			Help:    "Provider response time per delivery attempt",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		QueueDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_email_queue_dropped_total",
			Help: "Notifications dropped because the async queue was full or closed",
		}),
		BreakerTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_email_breaker_transitions_total",
			Help: "Provider circuit breaker state changes",
		}, []string{"provider", "state"}),
	}
}

func (m *Metrics) ObserveDelivery(provider, kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(provider, kind, status).Inc()
	m.DeliveryLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) IncrementDropped() {
	if m != nil {
		m.QueueDropped.Inc()
	}
}

func (m *Metrics) IncrementBreaker(provider, state string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(provider, state).Inc()
	}
}
