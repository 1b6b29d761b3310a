package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bulwark/pkg/config"
)

// CacheMetrics tracks cache performance metrics.
//
// Metrics:
//   - bulwark_client_cache_hits_total: Total cache hits by cache name
//   - bulwark_client_cache_misses_total: Total cache misses by cache name
//   - bulwark_client_cache_entries: Current number of entries in cache
//   - bulwark_client_cache_evictions_total: Total cache evictions
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	entries        *prometheus.GaugeVec
	evictionsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit increments the hit counter for a named cache.
func (cm *CacheMetrics) RecordHit(cache string) {
	cm.hitsTotal.WithLabelValues(cache).Inc()
}

// RecordMiss increments the miss counter for a named cache.
func (cm *CacheMetrics) RecordMiss(cache string) {
	cm.missesTotal.WithLabelValues(cache).Inc()
}

// RecordEviction increments the eviction counter for a named cache.
func (cm *CacheMetrics) RecordEviction(cache string) {
	cm.evictionsTotal.WithLabelValues(cache).Inc()
}

// SetEntries sets the current entry count for a named cache.
func (cm *CacheMetrics) SetEntries(cache string, count int) {
	cm.entries.WithLabelValues(cache).Set(float64(count))
}
