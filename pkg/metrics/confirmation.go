package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConfirmationMetrics records resolver outcomes and attempt counts.
type ConfirmationMetrics struct {
	attempts *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewConfirmationMetrics registers the confirmation metrics on the provided
// registerer. A nil registerer yields a no-op recorder for tests.
func NewConfirmationMetrics(reg prometheus.Registerer) *ConfirmationMetrics {
	if reg == nil {
		return &ConfirmationMetrics{}
	}
	attempts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "confirmation_attempts",
		Help:    "Lookup attempts needed to finish one confirmation resolution.",
		Buckets: []float64{1, 2, 3, 4, 5},
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "confirmation_outcomes_total",
		Help: "Terminal resolver outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(attempts, outcomes)
	return &ConfirmationMetrics{
		attempts: attempts,
		outcomes: outcomes,
	}
}

// ObserveResolution records a finished resolution run.
func (c *ConfirmationMetrics) ObserveResolution(outcome string, attempts int) {
	if c == nil || c.attempts == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.attempts.WithLabelValues(label).Observe(float64(attempts))
	c.outcomes.WithLabelValues(label).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
