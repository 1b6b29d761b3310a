package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bulwark/pkg/config"
)

// RateLimitMetrics tracks rate limiter decisions.
//
// Metrics:
//   - bulwark_client_ratelimit_allowed_total: Checks that permitted a request
//   - bulwark_client_ratelimit_rejected_total: Checks that denied a request
type RateLimitMetrics struct {
	allowedTotal  *prometheus.CounterVec
	rejectedTotal *prometheus.CounterVec
}

// NewRateLimitMetrics creates and registers rate limit metrics with the provided registry.
func NewRateLimitMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		allowedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_allowed_total",
				Help:      "Total rate limit checks that permitted a request",
			},
			[]string{"limiter"},
		),

		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_rejected_total",
				Help:      "Total rate limit checks that denied a request",
			},
			[]string{"limiter"},
		),
	}

	registry.MustRegister(
		rm.allowedTotal,
		rm.rejectedTotal,
	)

	return rm
}

// RecordDecision increments the counter matching the limiter's decision.
func (rm *RateLimitMetrics) RecordDecision(limiter string, allowed bool) {
	if allowed {
		rm.allowedTotal.WithLabelValues(limiter).Inc()
		return
	}
	rm.rejectedTotal.WithLabelValues(limiter).Inc()
}
