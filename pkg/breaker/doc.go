// Package breaker implements the circuit breaker pattern for protecting
// callers from a failing upstream.
//
// # States
//
// A CircuitBreaker is a three-state machine:
//
//   - Closed: all calls pass through (initial state)
//   - Open: all calls are rejected immediately with ErrCircuitOpen
//   - HalfOpen: calls pass through as trial probes
//
// Consecutive failures reaching FailureThreshold open the circuit. After
// Timeout has elapsed the next call transitions the breaker to HalfOpen;
// SuccessThreshold consecutive successes close it again, while any single
// failure reopens it. The Open-to-HalfOpen transition is evaluated lazily
// on the next call attempt, not by a background timer.
//
// # Usage
//
//	cb, err := breaker.New(breaker.Config{
//	    FailureThreshold: 5,
//	    SuccessThreshold: 2,
//	    Timeout:          30 * time.Second,
//	})
//
//	resp, err := breaker.Do(ctx, cb, func(ctx context.Context) (*Response, error) {
//	    return client.Send(ctx, req)
//	})
//	if errors.Is(err, breaker.ErrCircuitOpen) {
//	    // Rejected without reaching upstream
//	}
//
// The breaker never retries and never alters the wrapped operation's result;
// retry policy belongs to a layer above.
//
// # Thread Safety
//
// State, counters, and the last failure time form one atomic unit guarded
// by a single mutex, so transitions are never observed half-updated.
package breaker
