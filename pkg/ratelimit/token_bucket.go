package ratelimit

import (
	"sync"
	"time"
)

// tokenBucket implements the token bucket rate limiting algorithm.
//
// The bucket starts full. Tokens are refilled continuously based on the
// elapsed wall-clock time since the previous check, capped at the bucket
// capacity. Each allowed request consumes exactly one token.
//
// # Algorithm
//
//  1. Add elapsedSeconds * refillRate tokens (up to capacity)
//  2. If at least one token is available, consume it and allow
//  3. Otherwise reject
//
// lastRefill advances on every check, including rejections, so refill is
// continuous rather than batched to whole tokens.
//
// # Thread Safety
//
// tokenBucket is thread-safe using sync.Mutex for all operations.
type tokenBucket struct {
	capacity   float64   // Maximum tokens in bucket
	tokens     float64   // Current available tokens (fractional)
	refillRate float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled

	total    int64 // Total Allow calls
	rejected int64 // Rejected Allow calls

	mu sync.Mutex
}

// newTokenBucket creates a token bucket limiter. The bucket starts full.
func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow attempts to consume one token from the bucket.
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	tb.total++

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	tb.rejected++
	return false
}

// stats returns the request counters.
func (tb *tokenBucket) stats() Stats {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	return Stats{
		TotalRequests:    tb.total,
		RejectedRequests: tb.rejected,
	}
}

// reset restores the bucket to full capacity and clears counters.
func (tb *tokenBucket) reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
	tb.total = 0
	tb.rejected = 0
}

// refillLocked adds tokens based on elapsed time since last refill.
// Caller must hold lock.
func (tb *tokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tb.tokens += elapsed.Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}

	tb.lastRefill = now
}
