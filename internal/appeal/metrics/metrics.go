package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the appeal workflow.
type Metrics struct {
	Created          prometheus.Counter
	Resolved         *prometheus.CounterVec
	Conflicts        *prometheus.CounterVec
	DocumentFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_appeals_created_total",
			Help: "Total appeals filed by verifiers",
		}),
		Resolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_appeals_resolved_total",
			Help: "Total appeals resolved by decision",
		}, []string{"decision"}),
		Conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_appeals_conflicts_total",
			Help: "Rejected appeal writes: duplicate appeal or re-adjudication",
		}, []string{"operation"}),
		DocumentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_appeals_document_upload_failures_total",
			Help: "Supporting document uploads that failed; the appeal proceeded without a document",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

func (m *Metrics) IncrementResolved(decision string) {
	if m != nil {
		m.Resolved.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncrementConflict(operation string) {
	if m != nil {
		m.Conflicts.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncrementDocumentFailure() {
	if m != nil {
		m.DocumentFailures.Inc()
	}
}
