package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FailuresRecorded prometheus.Counter
	BlocksApplied    prometheus.Counter
	BlockedRejects   prometheus.Counter
	Resets           prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		FailuresRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_attempts_failures_recorded_total",
			Help: "Total number of failed identity validations recorded",
		}),
		BlocksApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_attempts_blocks_applied_total",
			Help: "Total number of verifier/employee pairs that reached the attempt limit",
		}),
		BlockedRejects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_attempts_blocked_rejections_total",
			Help: "Total number of requests rejected because the pair is blocked",
		}),
		Resets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_attempts_resets_total",
			Help: "Total number of attempt counters reset after successful validation",
		}),
	}
}

func (m *Metrics) IncrementFailures() {
	if m != nil {
		m.FailuresRecorded.Inc()
	}
}

func (m *Metrics) IncrementBlocks() {
	if m != nil {
		m.BlocksApplied.Inc()
	}
}

func (m *Metrics) IncrementBlockedRejects() {
	if m != nil {
		m.BlockedRejects.Inc()
	}
}

func (m *Metrics) IncrementResets() {
	if m != nil {
		m.Resets.Inc()
	}
}
