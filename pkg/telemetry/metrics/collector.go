package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bulwark/pkg/config"
)

// Collector is the orchestrator for all Prometheus metrics in bulwark.
// It manages metric registration and provides a unified interface for
// recording metrics across all components.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	cacheMetrics     *CacheMetrics
	breakerMetrics   *BreakerMetrics
	rateLimitMetrics *RateLimitMetrics
	quotaMetrics     *QuotaMetrics
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := config.MetricsConfig{
//	    Enabled:   true,
//	    Namespace: "bulwark",
//	    Subsystem: "client",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "bulwark"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "client"
	}

	return &Collector{
		config:           cfg,
		registry:         registry,
		cacheMetrics:     NewCacheMetrics(cfg, registry),
		breakerMetrics:   NewBreakerMetrics(cfg, registry),
		rateLimitMetrics: NewRateLimitMetrics(cfg, registry),
		quotaMetrics:     NewQuotaMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Cache returns the cache metric family.
func (c *Collector) Cache() *CacheMetrics { return c.cacheMetrics }

// Breaker returns the circuit breaker metric family.
func (c *Collector) Breaker() *BreakerMetrics { return c.breakerMetrics }

// RateLimit returns the rate limiter metric family.
func (c *Collector) RateLimit() *RateLimitMetrics { return c.rateLimitMetrics }

// Quota returns the quota metric family.
func (c *Collector) Quota() *QuotaMetrics { return c.quotaMetrics }

// Enabled reports whether metric collection is turned on.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}
