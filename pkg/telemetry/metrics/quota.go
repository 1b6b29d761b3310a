package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bulwark/pkg/config"
)

// QuotaMetrics tracks quota usage and rejections.
//
// Metrics:
//   - bulwark_client_quota_requests: Recorded requests by scope
//   - bulwark_client_quota_tokens: Recorded tokens by scope
//   - bulwark_client_quota_cost_usd: Accumulated cost in USD by scope
//   - bulwark_client_quota_rejected_total: Rejections by scope and ceiling kind
type QuotaMetrics struct {
	requests      *prometheus.GaugeVec
	tokens        *prometheus.GaugeVec
	costUSD       *prometheus.GaugeVec
	rejectedTotal *prometheus.CounterVec
}

// NewQuotaMetrics creates and registers quota metrics with the provided registry.
func NewQuotaMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *QuotaMetrics {
	qm := &QuotaMetrics{
		requests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "quota_requests",
				Help:      "Recorded requests in the current period",
			},
			[]string{"scope"},
		),

		tokens: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "quota_tokens",
				Help:      "Recorded tokens in the current period",
			},
			[]string{"scope"},
		),

		costUSD: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "quota_cost_usd",
				Help:      "Accumulated cost in USD in the current period",
			},
			[]string{"scope"},
		),

		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "quota_rejected_total",
				Help:      "Total requests rejected by a quota ceiling",
			},
			[]string{"scope", "kind"},
		),
	}

	registry.MustRegister(
		qm.requests,
		qm.tokens,
		qm.costUSD,
		qm.rejectedTotal,
	)

	return qm
}

// SetUsage records the current usage for a scope ("daily" or "monthly").
func (qm *QuotaMetrics) SetUsage(scope string, requests, tokens int64, costUSD float64) {
	qm.requests.WithLabelValues(scope).Set(float64(requests))
	qm.tokens.WithLabelValues(scope).Set(float64(tokens))
	qm.costUSD.WithLabelValues(scope).Set(costUSD)
}

// RecordRejection increments the rejection counter for a violated ceiling.
func (qm *QuotaMetrics) RecordRejection(scope, kind string) {
	qm.rejectedTotal.WithLabelValues(scope, kind).Inc()
}
