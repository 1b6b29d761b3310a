package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bulwark/pkg/config"
)

// BreakerMetrics tracks circuit breaker behavior.
//
// Metrics:
//   - bulwark_client_breaker_state: Current state (0=closed, 1=open, 2=half_open)
//   - bulwark_client_breaker_transitions_total: State transitions by target state
//   - bulwark_client_breaker_rejected_total: Calls rejected while open
type BreakerMetrics struct {
	state            *prometheus.GaugeVec
	transitionsTotal *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
}

// NewBreakerMetrics creates and registers breaker metrics with the provided registry.
func NewBreakerMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *BreakerMetrics {
	bm := &BreakerMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half_open)",
			},
			[]string{"breaker"},
		),

		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_transitions_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"breaker", "to_state"},
		),

		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_rejected_total",
				Help:      "Total calls rejected by an open circuit",
			},
			[]string{"breaker"},
		),
	}

	registry.MustRegister(
		bm.state,
		bm.transitionsTotal,
		bm.rejectedTotal,
	)

	return bm
}

// SetState records the current state of a named breaker.
func (bm *BreakerMetrics) SetState(breaker string, state int) {
	bm.state.WithLabelValues(breaker).Set(float64(state))
}

// RecordTransition increments the transition counter for a target state.
func (bm *BreakerMetrics) RecordTransition(breaker, toState string) {
	bm.transitionsTotal.WithLabelValues(breaker, toState).Inc()
}

// RecordRejection increments the open-circuit rejection counter.
func (bm *BreakerMetrics) RecordRejection(breaker string) {
	bm.rejectedTotal.WithLabelValues(breaker).Inc()
}
