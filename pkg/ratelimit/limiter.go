package ratelimit

import (
	"sync"
)

// Limiter bounds outbound request rate using the configured algorithm.
//
// The algorithm is chosen at construction and immutable thereafter. The
// limiter exposes one boolean check regardless of algorithm:
//
//	if limiter.Allow() {
//	    // issue the request
//	}
type Limiter struct {
	config Config

	// Exactly one of the two is non-nil, selected by config.Algorithm.
	bucket *tokenBucket
	window *slidingWindow
}

// New creates a Limiter for the given configuration.
//
// Returns an error wrapping ErrInvalidConfig if the configuration is
// invalid for the selected algorithm. Construction is the only operation
// that can fail; Allow never does.
func New(config Config) (*Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{config: config}

	switch config.algorithm() {
	case TokenBucket:
		l.bucket = newTokenBucket(config.BurstCapacity, config.RefillRate)
	case SlidingWindow:
		l.window = newSlidingWindow(config.MaxRequests, config.WindowDuration)
	}

	return l, nil
}

// Allow reports whether one more request may be issued now.
// An allowed request is counted against the limit; a rejected one is not.
func (l *Limiter) Allow() bool {
	if l.bucket != nil {
		return l.bucket.allow()
	}
	return l.window.allow()
}

// Algorithm returns the algorithm this limiter was constructed with.
func (l *Limiter) Algorithm() Algorithm {
	return l.config.algorithm()
}

// Stats returns the total and rejected request counters.
func (l *Limiter) Stats() Stats {
	if l.bucket != nil {
		return l.bucket.stats()
	}
	return l.window.stats()
}

// Reset restores the limiter to its initial condition: a full bucket or an
// empty window, with zeroed counters. This is primarily for testing and
// manual limit resets.
func (l *Limiter) Reset() {
	if l.bucket != nil {
		l.bucket.reset()
		return
	}
	l.window.reset()
}

// PerEndpoint maintains one independent Limiter per endpoint key.
//
// Limiters are created lazily from a shared configuration the first time an
// endpoint is seen. This mirrors per-identifier limiting where each API
// route gets its own budget.
type PerEndpoint struct {
	config   Config
	limiters map[string]*Limiter
	mu       sync.Mutex
}

// NewPerEndpoint creates a keyed limiter set from a shared configuration.
// The configuration is validated once up front so lazy creation cannot fail.
func NewPerEndpoint(config Config) (*PerEndpoint, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PerEndpoint{
		config:   config,
		limiters: make(map[string]*Limiter),
	}, nil
}

// Allow reports whether one more request may be issued to the endpoint.
func (pe *PerEndpoint) Allow(endpoint string) bool {
	return pe.limiter(endpoint).Allow()
}

// Stats returns the counters for the endpoint's limiter.
// An endpoint that has never been checked reports zero counters.
func (pe *PerEndpoint) Stats(endpoint string) Stats {
	return pe.limiter(endpoint).Stats()
}

// Reset resets every endpoint limiter.
func (pe *PerEndpoint) Reset() {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	for _, l := range pe.limiters {
		l.Reset()
	}
}

// limiter returns the limiter for an endpoint, creating it if needed.
func (pe *PerEndpoint) limiter(endpoint string) *Limiter {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	l, ok := pe.limiters[endpoint]
	if !ok {
		// Config was validated in NewPerEndpoint, so New cannot fail here.
		l, _ = New(pe.config)
		pe.limiters[endpoint] = l
	}
	return l
}
