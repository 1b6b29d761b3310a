package config

import (
	"mercator-hq/bulwark/pkg/breaker"
	"mercator-hq/bulwark/pkg/cache"
	"mercator-hq/bulwark/pkg/costs"
	"mercator-hq/bulwark/pkg/quota"
	"mercator-hq/bulwark/pkg/ratelimit"
)

// Config is the root configuration for all bulwark components.
type Config struct {
	// Cache configures the response cache.
	Cache cache.Config `yaml:"cache"`

	// Breaker configures the circuit breaker.
	Breaker breaker.Config `yaml:"breaker"`

	// RateLimit configures the rate limiter.
	RateLimit ratelimit.Config `yaml:"rate_limit"`

	// Quota configures usage and cost ceilings.
	Quota quota.Config `yaml:"quota"`

	// Pricing overrides the compiled-in price table.
	Pricing costs.Table `yaml:"pricing"`

	// Storage configures quota snapshot persistence.
	Storage StorageConfig `yaml:"storage"`

	// History configures the usage audit trail.
	History HistoryConfig `yaml:"history"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig configures quota snapshot persistence.
type StorageConfig struct {
	// Backend selects the snapshot store: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// HistoryConfig configures the usage audit trail.
type HistoryConfig struct {
	// Enabled turns usage recording on.
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the audit database file path.
	SQLitePath string `yaml:"sqlite_path"`

	// PruneSchedule is a cron expression for retention pruning.
	// Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`

	// RetentionDays is how many days of records to keep.
	RetentionDays int `yaml:"retention_days"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name sub-prefix.
	Subsystem string `yaml:"subsystem"`
}
