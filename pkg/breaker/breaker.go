package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State int

const (
	// StateClosed permits all calls. This is the initial state.
	StateClosed State = iota

	// StateOpen rejects all calls immediately.
	StateOpen

	// StateHalfOpen permits calls as trial probes.
	StateHalfOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker currently rejects calls.
// It is distinct from any error the wrapped operation returns.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrInvalidConfig is returned by New for unusable configurations.
var ErrInvalidConfig = errors.New("invalid circuit breaker configuration")

// Config contains configuration for a CircuitBreaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold int `yaml:"failure_threshold"`

	// SuccessThreshold is the number of consecutive successes in HalfOpen
	// that closes the circuit.
	SuccessThreshold int `yaml:"success_threshold"`

	// Timeout is how long the circuit stays Open before the next call is
	// allowed through as a probe.
	Timeout time.Duration `yaml:"timeout"`

	// ShouldTrip classifies errors. When nil, every non-nil error counts
	// as a failure. Errors for which ShouldTrip returns false are passed
	// through without affecting breaker state.
	ShouldTrip func(error) bool `yaml:"-"`
}

// CircuitBreaker protects callers from hammering a failing upstream.
//
// All state participating in a transition (state, counters, last failure
// time) lives behind one mutex so transitions are atomic.
type CircuitBreaker struct {
	config Config

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	lastFailure  time.Time
}

// New creates a circuit breaker in the Closed state with zero counters.
// Returns an error wrapping ErrInvalidConfig if any threshold or the
// timeout is not positive.
func New(config Config) (*CircuitBreaker, error) {
	if config.FailureThreshold <= 0 {
		return nil, fmt.Errorf("%w: failure_threshold must be > 0, got %d", ErrInvalidConfig, config.FailureThreshold)
	}
	if config.SuccessThreshold <= 0 {
		return nil, fmt.Errorf("%w: success_threshold must be > 0, got %d", ErrInvalidConfig, config.SuccessThreshold)
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0, got %v", ErrInvalidConfig, config.Timeout)
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}, nil
}

// Allow reports whether a call may proceed right now.
//
// It returns nil if the call is permitted and ErrCircuitOpen otherwise.
// When the circuit is Open and the cooldown has elapsed, Allow performs
// the lazy transition to HalfOpen and permits the call as a probe.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			return nil
		}
		return ErrCircuitOpen
	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess records a successful call outcome.
//
// In Closed it zeroes the consecutive-failure count. In HalfOpen it counts
// toward SuccessThreshold and closes the circuit when reached.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

// RecordFailure records a failed call outcome.
//
// In Closed it counts toward FailureThreshold and opens the circuit when
// reached. In HalfOpen a single failure reopens the circuit immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.successCount = 0
	}
}

// State returns the current state without performing lazy transitions.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsClosed reports whether the breaker is Closed.
func (cb *CircuitBreaker) IsClosed() bool { return cb.State() == StateClosed }

// IsOpen reports whether the breaker is Open.
func (cb *CircuitBreaker) IsOpen() bool { return cb.State() == StateOpen }

// IsHalfOpen reports whether the breaker is HalfOpen.
func (cb *CircuitBreaker) IsHalfOpen() bool { return cb.State() == StateHalfOpen }

// FailureCount returns the current consecutive-failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// SuccessCount returns the current consecutive-success count (HalfOpen).
func (cb *CircuitBreaker) SuccessCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.successCount
}

// Reset forces the breaker back to Closed with zero counters.
// This is an administrative recovery path, not part of normal operation.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.lastFailure = time.Time{}
}

// Do runs fn through the circuit breaker.
//
// If the breaker disallows calls, Do returns the zero value and
// ErrCircuitOpen without invoking fn. Otherwise fn is invoked and its
// result is returned verbatim after the outcome is recorded. Errors for
// which Config.ShouldTrip returns false pass through without counting
// as failures.
func Do[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := cb.Allow(); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	if err != nil {
		if cb.config.ShouldTrip == nil || cb.config.ShouldTrip(err) {
			cb.RecordFailure()
		}
		return zero, err
	}

	cb.RecordSuccess()
	return result, nil
}
