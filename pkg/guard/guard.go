package guard

import (
	"context"
	"errors"
	"log/slog"

	"mercator-hq/bulwark/pkg/breaker"
	"mercator-hq/bulwark/pkg/cache"
	"mercator-hq/bulwark/pkg/history"
	"mercator-hq/bulwark/pkg/quota"
	"mercator-hq/bulwark/pkg/ratelimit"
	"mercator-hq/bulwark/pkg/telemetry/metrics"
)

// ErrRateLimited is returned when the rate limiter denies a request.
var ErrRateLimited = errors.New("request rate limited")

// Request describes one upstream call to the pipeline.
type Request struct {
	// CacheKey identifies the response in the cache. Empty disables
	// caching for this call.
	CacheKey string

	// Model is the model the call targets, used for quota accounting.
	Model string

	// InputTokens is the estimated prompt token count.
	InputTokens int

	// OutputTokens is the estimated completion token count.
	OutputTokens int
}

// Options contains the components a Guard assembles. Any nil component is
// skipped by the pipeline.
type Options[V any] struct {
	// Cache stores successful responses by Request.CacheKey.
	Cache *cache.Cache[string, V]

	// Quota enforces usage and cost ceilings.
	Quota *quota.Manager

	// Limiter bounds outbound request rate.
	Limiter *ratelimit.Limiter

	// Breaker guards the upstream call.
	Breaker *breaker.CircuitBreaker

	// Recorder receives one audit record per call.
	Recorder *history.Recorder

	// Collector receives pipeline metrics.
	Collector *metrics.Collector

	// CacheName labels cache metrics. Default: "response".
	CacheName string

	// Logger receives pipeline debug logging. Default: slog.Default.
	Logger *slog.Logger
}

// Guard composes cache, quota, rate limiting, and circuit breaking around
// one upstream operation. A Guard is cheap to share: all mutable state
// lives in the components, which are individually thread-safe.
type Guard[V any] struct {
	opts Options[V]
}

// New creates a Guard from the given components.
func New[V any](opts Options[V]) *Guard[V] {
	if opts.CacheName == "" {
		opts.CacheName = "response"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "guard")
	}

	return &Guard[V]{opts: opts}
}

// Do runs fn through the pipeline.
//
// A cache hit short-circuits the pipeline entirely: no quota is consumed
// and no upstream call is made. Otherwise the request must pass quota and
// rate limit checks before the circuit breaker invokes fn. A successful
// result is cached; every non-cached call is recorded to the audit trail.
func (g *Guard[V]) Do(ctx context.Context, req Request, fn func(context.Context) (V, error)) (V, error) {
	var zero V

	if cached, ok := g.cacheGet(req.CacheKey); ok {
		return cached, nil
	}

	if g.opts.Quota != nil {
		if err := g.opts.Quota.RecordUsage(req.Model, req.InputTokens, req.OutputTokens); err != nil {
			g.observeQuotaReject(err)
			g.record(ctx, req, history.OutcomeRejected)
			return zero, err
		}
		g.observeQuotaUsage()
	}

	if g.opts.Limiter != nil {
		allowed := g.opts.Limiter.Allow()
		g.observeLimiter(allowed)
		if !allowed {
			g.record(ctx, req, history.OutcomeRejected)
			return zero, ErrRateLimited
		}
	}

	var result V
	var err error
	if g.opts.Breaker != nil {
		result, err = breaker.Do(ctx, g.opts.Breaker, fn)
		g.observeBreaker(err)
	} else {
		result, err = fn(ctx)
	}

	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			g.record(ctx, req, history.OutcomeRejected)
		} else {
			g.record(ctx, req, history.OutcomeError)
		}
		return zero, err
	}

	g.cacheSet(req.CacheKey, result)
	g.record(ctx, req, history.OutcomeSuccess)
	return result, nil
}

// cacheGet looks up a cached response and records the hit or miss.
func (g *Guard[V]) cacheGet(key string) (V, bool) {
	var zero V
	if g.opts.Cache == nil || key == "" {
		return zero, false
	}

	value, ok := g.opts.Cache.Get(key)
	if g.collectorEnabled() {
		if ok {
			g.opts.Collector.Cache().RecordHit(g.opts.CacheName)
		} else {
			g.opts.Collector.Cache().RecordMiss(g.opts.CacheName)
		}
		g.opts.Collector.Cache().SetEntries(g.opts.CacheName, g.opts.Cache.Len())
	}

	return value, ok
}

// cacheSet stores a successful response.
func (g *Guard[V]) cacheSet(key string, value V) {
	if g.opts.Cache == nil || key == "" {
		return
	}

	g.opts.Cache.Set(key, value)
	if g.collectorEnabled() {
		g.opts.Collector.Cache().SetEntries(g.opts.CacheName, g.opts.Cache.Len())
	}
}

// record appends one audit record, best-effort.
func (g *Guard[V]) record(ctx context.Context, req Request, outcome history.Outcome) {
	if g.opts.Recorder == nil {
		return
	}

	rec := &history.Record{
		Model:        req.Model,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		Outcome:      outcome,
	}
	if err := g.opts.Recorder.Record(ctx, rec); err != nil {
		g.opts.Logger.Warn("failed to record usage history", "error", err)
	}
}

// observeQuotaReject records a quota rejection metric.
func (g *Guard[V]) observeQuotaReject(err error) {
	if !g.collectorEnabled() {
		return
	}

	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		g.opts.Collector.Quota().RecordRejection(string(exceeded.Scope), string(exceeded.Kind))
	}
}

// observeQuotaUsage refreshes the quota usage gauges.
func (g *Guard[V]) observeQuotaUsage() {
	if !g.collectorEnabled() {
		return
	}

	daily := g.opts.Quota.DailyUsage()
	monthly := g.opts.Quota.MonthlyUsage()
	g.opts.Collector.Quota().SetUsage("daily", daily.RequestCount, daily.TotalTokens(), daily.TotalCost)
	g.opts.Collector.Quota().SetUsage("monthly", monthly.RequestCount, monthly.TotalTokens(), monthly.TotalCost)
}

// observeLimiter records a rate limit decision metric.
func (g *Guard[V]) observeLimiter(allowed bool) {
	if !g.collectorEnabled() {
		return
	}
	g.opts.Collector.RateLimit().RecordDecision("outbound", allowed)
}

// observeBreaker records breaker state and rejections.
func (g *Guard[V]) observeBreaker(err error) {
	if !g.collectorEnabled() {
		return
	}

	state := g.opts.Breaker.State()
	g.opts.Collector.Breaker().SetState("upstream", int(state))
	if errors.Is(err, breaker.ErrCircuitOpen) {
		g.opts.Collector.Breaker().RecordRejection("upstream")
	}
}

// collectorEnabled reports whether metrics should be recorded.
func (g *Guard[V]) collectorEnabled() bool {
	return g.opts.Collector != nil && g.opts.Collector.Enabled()
}
