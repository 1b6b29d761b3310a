package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/bulwark/pkg/ratelimit"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use LoadWithEnvOverrides
// for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// BULWARK_SECTION_FIELD (e.g., BULWARK_BREAKER_TIMEOUT) and always take
// precedence over file-based configuration.
//
// The loading sequence is:
//
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// Default returns a usable configuration without a file: defaults only.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// applyEnvOverrides applies BULWARK_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Cache overrides
	if v, ok := envInt("BULWARK_CACHE_MAX_ENTRIES"); ok {
		cfg.Cache.MaxEntries = v
	}
	if v, ok := envDuration("BULWARK_CACHE_DEFAULT_TTL"); ok {
		cfg.Cache.DefaultTTL = v
	}

	// Breaker overrides
	if v, ok := envInt("BULWARK_BREAKER_FAILURE_THRESHOLD"); ok {
		cfg.Breaker.FailureThreshold = v
	}
	if v, ok := envInt("BULWARK_BREAKER_SUCCESS_THRESHOLD"); ok {
		cfg.Breaker.SuccessThreshold = v
	}
	if v, ok := envDuration("BULWARK_BREAKER_TIMEOUT"); ok {
		cfg.Breaker.Timeout = v
	}

	// Rate limit overrides
	if v := os.Getenv("BULWARK_RATELIMIT_ALGORITHM"); v != "" {
		cfg.RateLimit.Algorithm = ratelimit.Algorithm(v)
	}
	if v, ok := envInt("BULWARK_RATELIMIT_MAX_REQUESTS"); ok {
		cfg.RateLimit.MaxRequests = v
	}
	if v, ok := envDuration("BULWARK_RATELIMIT_WINDOW_DURATION"); ok {
		cfg.RateLimit.WindowDuration = v
	}
	if v, ok := envInt("BULWARK_RATELIMIT_BURST_CAPACITY"); ok {
		cfg.RateLimit.BurstCapacity = v
	}
	if v, ok := envFloat("BULWARK_RATELIMIT_REFILL_RATE"); ok {
		cfg.RateLimit.RefillRate = v
	}

	// Quota overrides
	if v, ok := envInt64("BULWARK_QUOTA_DAILY_REQUEST_LIMIT"); ok {
		cfg.Quota.DailyRequestLimit = v
	}
	if v, ok := envInt64("BULWARK_QUOTA_DAILY_TOKEN_LIMIT"); ok {
		cfg.Quota.DailyTokenLimit = v
	}
	if v, ok := envFloat("BULWARK_QUOTA_DAILY_COST_LIMIT"); ok {
		cfg.Quota.DailyCostLimit = v
	}
	if v, ok := envInt64("BULWARK_QUOTA_MONTHLY_REQUEST_LIMIT"); ok {
		cfg.Quota.MonthlyRequestLimit = v
	}
	if v, ok := envInt64("BULWARK_QUOTA_MONTHLY_TOKEN_LIMIT"); ok {
		cfg.Quota.MonthlyTokenLimit = v
	}
	if v, ok := envFloat("BULWARK_QUOTA_MONTHLY_COST_LIMIT"); ok {
		cfg.Quota.MonthlyCostLimit = v
	}

	// Storage overrides
	if v := os.Getenv("BULWARK_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BULWARK_STORAGE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	// Logging overrides
	if v := os.Getenv("BULWARK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BULWARK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envInt64(name string) (int64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envFloat(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
