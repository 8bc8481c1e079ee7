package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Submission outcomes by overall status
	Outcomes *prometheus.CounterVec

	// Identity validation outcomes: success, not_found, name_mismatch, entity_mismatch, blocked
	Validations *prometheus.CounterVec

	MatchScore    prometheus.Histogram
	SubmitLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_verification_outcomes_total",
			Help: "Total verification submissions by overall status",
		}, []string{"status"}),
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_verification_identity_validations_total",
			Help: "Total identity validations by result",
		}, []string{"result"}),
		MatchScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "empverify_verification_match_score",
			Help:    "Distribution of verification match scores",
			Buckets: []float64{0, 17, 34, 50, 67, 84, 100},
		}),
		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "empverify_verification_submit_duration_seconds",
			Help:    "Duration of verification submission including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementOutcome(status string, score int) {
	if m != nil {
		m.Outcomes.WithLabelValues(status).Inc()
		m.MatchScore.Observe(float64(score))
	}
}

func (m *Metrics) IncrementValidation(result string) {
	if m != nil {
		m.Validations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}
