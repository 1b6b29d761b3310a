// Package guard assembles bulwark's resilience components into a single
// pipeline around an upstream call.
//
// # Pipeline
//
// A Guard wires the components in a fixed order:
//
//  1. Cache: a live cached response returns immediately
//  2. Quota: the request's estimated usage is checked and committed
//  3. Rate limiter: the outbound request rate is bounded
//  4. Circuit breaker: the upstream call runs as a guarded operation
//
// Every component is optional; a nil component is skipped. Rejections are
// distinguishable from upstream failures by error type: ErrRateLimited,
// *quota.ExceededError, and breaker.ErrCircuitOpen each identify the
// rejecting stage, so callers can choose between backing off and surfacing
// a budget message.
//
//	g := guard.New[*Response](guard.Options[*Response]{
//	    Cache:   responseCache,
//	    Quota:   quotaManager,
//	    Limiter: limiter,
//	    Breaker: cb,
//	})
//
//	resp, err := g.Do(ctx, guard.Request{
//	    CacheKey:     promptHash,
//	    Model:        "claude-sonnet-4",
//	    InputTokens:  1200,
//	    OutputTokens: 400,
//	}, callUpstream)
package guard
