package config

import (
	"time"

	"mercator-hq/bulwark/pkg/ratelimit"
)

// Default values for configuration fields.
const (
	// Cache defaults
	DefaultCacheMaxEntries = 1024
	DefaultCacheTTL        = 5 * time.Minute

	// Breaker defaults
	DefaultBreakerFailureThreshold = 5
	DefaultBreakerSuccessThreshold = 2
	DefaultBreakerTimeout          = 30 * time.Second

	// Rate limit defaults
	DefaultRateLimitAlgorithm   = ratelimit.TokenBucket
	DefaultRateLimitBurst       = 10
	DefaultRateLimitRefillRate  = 5.0
	DefaultRateLimitMaxRequests = 60
	DefaultRateLimitWindow      = time.Minute

	// Storage defaults
	DefaultStorageBackend    = "memory"
	DefaultStorageSQLitePath = "data/quota.db"

	// History defaults
	DefaultHistorySQLitePath    = "data/usage.db"
	DefaultHistoryPruneSchedule = "0 3 * * *"
	DefaultHistoryRetentionDays = 90

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Metrics defaults
	DefaultMetricsNamespace = "bulwark"
	DefaultMetricsSubsystem = "client"
)

// ApplyDefaults fills zero-valued fields with defaults.
// Quota ceilings and the pricing table are left alone: zero means
// unlimited for ceilings, and an empty table means the compiled-in prices.
func ApplyDefaults(cfg *Config) {
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTL
	}

	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = DefaultBreakerFailureThreshold
	}
	if cfg.Breaker.SuccessThreshold == 0 {
		cfg.Breaker.SuccessThreshold = DefaultBreakerSuccessThreshold
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = DefaultBreakerTimeout
	}

	if cfg.RateLimit.Algorithm == "" {
		cfg.RateLimit.Algorithm = DefaultRateLimitAlgorithm
	}
	if cfg.RateLimit.BurstCapacity == 0 {
		cfg.RateLimit.BurstCapacity = DefaultRateLimitBurst
	}
	if cfg.RateLimit.RefillRate == 0 {
		cfg.RateLimit.RefillRate = DefaultRateLimitRefillRate
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = DefaultRateLimitMaxRequests
	}
	if cfg.RateLimit.WindowDuration == 0 {
		cfg.RateLimit.WindowDuration = DefaultRateLimitWindow
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultStorageSQLitePath
	}

	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = DefaultHistorySQLitePath
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}
