package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the creation gate.
type Metrics struct {
	// Gate decisions by outcome reason
	Decisions *prometheus.CounterVec

	// End-to-end gate latency
	GateLatency prometheus.Histogram
}

// New creates a Metrics instance with all gate metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_gate_decisions_total",
			Help: "Total creation gate decisions by reason",
		}, []string{"reason"}),

		GateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokengate_gate_duration_seconds",
			Help:    "Duration of full gate evaluation including all checks",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementDecision records one gate decision.
func (m *Metrics) IncrementDecision(reason string) {
	if m != nil {
		m.Decisions.WithLabelValues(reason).Inc()
	}
}

// ObserveGateLatency records the total gate evaluation duration.
func (m *Metrics) ObserveGateLatency(d time.Duration) {
	if m != nil {
		m.GateLatency.Observe(d.Seconds())
	}
}
