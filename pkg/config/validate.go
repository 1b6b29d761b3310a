package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "breaker.timeout").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// All field errors are collected and returned together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rules fail. Returns nil if the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCache(cfg)...)
	errs = append(errs, validateBreaker(cfg)...)
	errs = append(errs, validateRateLimit(cfg)...)
	errs = append(errs, validateQuota(cfg)...)
	errs = append(errs, validatePricing(cfg)...)
	errs = append(errs, validateStorage(cfg)...)
	errs = append(errs, validateLogging(cfg)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCache(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Cache.MaxEntries <= 0 {
		errs = append(errs, FieldError{"cache.max_entries", "must be greater than 0"})
	}
	if cfg.Cache.DefaultTTL < 0 {
		errs = append(errs, FieldError{"cache.default_ttl", "must not be negative"})
	}

	return errs
}

func validateBreaker(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Breaker.FailureThreshold <= 0 {
		errs = append(errs, FieldError{"breaker.failure_threshold", "must be greater than 0"})
	}
	if cfg.Breaker.SuccessThreshold <= 0 {
		errs = append(errs, FieldError{"breaker.success_threshold", "must be greater than 0"})
	}
	if cfg.Breaker.Timeout <= 0 {
		errs = append(errs, FieldError{"breaker.timeout", "must be greater than 0"})
	}

	return errs
}

func validateRateLimit(cfg *Config) []FieldError {
	if err := cfg.RateLimit.Validate(); err != nil {
		return []FieldError{{"rate_limit", err.Error()}}
	}
	return nil
}

func validateQuota(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Quota.DailyRequestLimit < 0 {
		errs = append(errs, FieldError{"quota.daily_request_limit", "must not be negative"})
	}
	if cfg.Quota.DailyTokenLimit < 0 {
		errs = append(errs, FieldError{"quota.daily_token_limit", "must not be negative"})
	}
	if cfg.Quota.DailyCostLimit < 0 {
		errs = append(errs, FieldError{"quota.daily_cost_limit", "must not be negative"})
	}
	if cfg.Quota.MonthlyRequestLimit < 0 {
		errs = append(errs, FieldError{"quota.monthly_request_limit", "must not be negative"})
	}
	if cfg.Quota.MonthlyTokenLimit < 0 {
		errs = append(errs, FieldError{"quota.monthly_token_limit", "must not be negative"})
	}
	if cfg.Quota.MonthlyCostLimit < 0 {
		errs = append(errs, FieldError{"quota.monthly_cost_limit", "must not be negative"})
	}

	return errs
}

func validatePricing(cfg *Config) []FieldError {
	var errs []FieldError

	for model, pricing := range cfg.Pricing {
		if pricing.InputPerMTok < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("pricing.%s.input_per_mtok", model),
				Message: "must not be negative",
			})
		}
		if pricing.OutputPerMTok < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("pricing.%s.output_per_mtok", model),
				Message: "must not be negative",
			})
		}
	}

	return errs
}

func validateStorage(cfg *Config) []FieldError {
	var errs []FieldError

	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be 'memory' or 'sqlite', got %q", cfg.Storage.Backend),
		})
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.SQLitePath == "" {
		errs = append(errs, FieldError{"storage.sqlite_path", "required for sqlite backend"})
	}

	return errs
}

func validateLogging(cfg *Config) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be 'json' or 'text', got %q", cfg.Logging.Format),
		})
	}

	return errs
}
