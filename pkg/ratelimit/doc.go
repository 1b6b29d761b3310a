// Package ratelimit provides client-side request rate limiting.
//
// # Overview
//
// The ratelimit package implements two interchangeable rate limiting
// algorithms behind a single Limiter facade:
//
//   - Token Bucket: bursts up to a capacity, continuous refill at a fixed rate
//   - Sliding Window: at most N requests within a rolling time window
//
// The algorithm is selected at construction and is immutable for the life
// of the limiter:
//
//	limiter, err := ratelimit.New(ratelimit.Config{
//	    Algorithm:      ratelimit.TokenBucket,
//	    BurstCapacity:  50,
//	    RefillRate:     10, // tokens per second
//	    MaxRequests:    100,
//	    WindowDuration: time.Minute,
//	})
//	if limiter.Allow() {
//	    // Request permitted
//	}
//
// # Per-Endpoint Limiting
//
// PerEndpoint maintains one independent limiter per endpoint key, created
// lazily from a shared configuration:
//
//	pe, _ := ratelimit.NewPerEndpoint(cfg)
//	if pe.Allow("/v1/messages") {
//	    // Request permitted for this endpoint
//	}
//
// # Thread Safety
//
// All limiters are thread-safe. Each limiter's state is guarded by a single
// mutex so a check-and-consume is one atomic step.
package ratelimit
