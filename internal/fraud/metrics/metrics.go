package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the fraud module.
type Metrics struct {
	// Evaluator latencies by source
	EvaluatorLatency *prometheus.HistogramVec

	// Fallback activations by source (provider failure or timeout)
	FallbackActivations *prometheus.CounterVec

	// Overall assessment latency
	AssessLatency prometheus.Histogram
}

// New creates a Metrics instance with all fraud module metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluatorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokengate_fraud_evaluator_duration_seconds",
			Help:    "Duration of fraud evaluator runs by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "logo", "name", "symbol" and sub-signals

		FallbackActivations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_fraud_fallbacks_total",
			Help: "Total fallback score substitutions by source",
		}, []string{"source"}),

		AssessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokengate_fraud_assess_duration_seconds",
			Help:    "Duration of full risk assessment including evaluator fan-out",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveEvaluatorLatency records the duration of one evaluator run.
func (m *Metrics) ObserveEvaluatorLatency(source string, d time.Duration) {
	if m != nil {
		m.EvaluatorLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementFallback records a fallback score substitution.
func (m *Metrics) IncrementFallback(source string) {
	if m != nil {
		m.FallbackActivations.WithLabelValues(source).Inc()
	}
}

// ObserveAssessLatency records the total assessment duration.
func (m *Metrics) ObserveAssessLatency(d time.Duration) {
	if m != nil {
		m.AssessLatency.Observe(d.Seconds())
	}
}
