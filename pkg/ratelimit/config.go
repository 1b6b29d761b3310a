package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Algorithm selects the rate limiting strategy for a Limiter.
type Algorithm string

const (
	// TokenBucket allows bursts up to BurstCapacity while maintaining an
	// average rate of RefillRate requests per second.
	TokenBucket Algorithm = "token_bucket"

	// SlidingWindow allows at most MaxRequests within any rolling
	// WindowDuration interval.
	SlidingWindow Algorithm = "sliding_window"
)

// ErrInvalidConfig is returned when a limiter configuration is invalid.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Config contains configuration for a Limiter.
//
// Only the fields relevant to the selected Algorithm are enforced:
// BurstCapacity and RefillRate for TokenBucket, MaxRequests and
// WindowDuration for SlidingWindow.
type Config struct {
	// Algorithm selects the limiting strategy. Defaults to TokenBucket.
	Algorithm Algorithm `yaml:"algorithm"`

	// MaxRequests is the maximum number of requests per window (sliding window).
	MaxRequests int `yaml:"max_requests"`

	// WindowDuration is the rolling window length (sliding window).
	WindowDuration time.Duration `yaml:"window_duration"`

	// BurstCapacity is the maximum token count in the bucket (token bucket).
	BurstCapacity int `yaml:"burst_capacity"`

	// RefillRate is the number of tokens added per second (token bucket).
	RefillRate float64 `yaml:"refill_rate"`

	// PerEndpoint indicates that callers intend one limiter per endpoint.
	// The flag is informational for configuration surfaces; the PerEndpoint
	// type provides the actual keyed limiters.
	PerEndpoint bool `yaml:"per_endpoint"`
}

// Validate checks the configuration for the selected algorithm.
// It returns an error wrapping ErrInvalidConfig describing the first
// invalid field, or nil if the configuration is usable.
func (c Config) Validate() error {
	switch c.algorithm() {
	case TokenBucket:
		if c.BurstCapacity <= 0 {
			return fmt.Errorf("%w: burst_capacity must be > 0, got %d", ErrInvalidConfig, c.BurstCapacity)
		}
		if c.RefillRate <= 0 {
			return fmt.Errorf("%w: refill_rate must be > 0, got %g", ErrInvalidConfig, c.RefillRate)
		}
	case SlidingWindow:
		if c.MaxRequests <= 0 {
			return fmt.Errorf("%w: max_requests must be > 0, got %d", ErrInvalidConfig, c.MaxRequests)
		}
		if c.WindowDuration <= 0 {
			return fmt.Errorf("%w: window_duration must be > 0, got %v", ErrInvalidConfig, c.WindowDuration)
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}

	return nil
}

// algorithm returns the configured algorithm, defaulting to TokenBucket.
func (c Config) algorithm() Algorithm {
	if c.Algorithm == "" {
		return TokenBucket
	}
	return c.Algorithm
}

// Stats contains observability counters for a limiter.
type Stats struct {
	// TotalRequests is the number of Allow calls made.
	TotalRequests int64

	// RejectedRequests is the number of Allow calls that were denied.
	RejectedRequests int64
}
