package guard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/bulwark/pkg/breaker"
	"mercator-hq/bulwark/pkg/cache"
	"mercator-hq/bulwark/pkg/costs"
	"mercator-hq/bulwark/pkg/history"
	"mercator-hq/bulwark/pkg/quota"
	"mercator-hq/bulwark/pkg/ratelimit"
)

var errUpstream = errors.New("upstream unavailable")

func newTestCache(t *testing.T) *cache.Cache[string, string] {
	t.Helper()
	return cache.New[string, string](cache.Config{MaxEntries: 100, DefaultTTL: time.Minute})
}

func newTestBreaker(t *testing.T, failureThreshold int, timeout time.Duration) *breaker.CircuitBreaker {
	t.Helper()
	cb, err := breaker.New(breaker.Config{
		FailureThreshold: failureThreshold,
		SuccessThreshold: 1,
		Timeout:          timeout,
	})
	if err != nil {
		t.Fatalf("breaker.New failed: %v", err)
	}
	return cb
}

func newTestLimiter(t *testing.T, burst int) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New(ratelimit.Config{
		Algorithm:     ratelimit.TokenBucket,
		BurstCapacity: burst,
		RefillRate:    0.000001,
	})
	if err != nil {
		t.Fatalf("ratelimit.New failed: %v", err)
	}
	return l
}

// ============================================================================
// Cache Short-Circuit Tests
// ============================================================================

func TestGuard_CacheHitSkipsPipeline(t *testing.T) {
	qm := quota.NewManager(quota.NewConfig().WithDailyRequests(1), nil)
	g := New[string](Options[string]{
		Cache: newTestCache(t),
		Quota: qm,
	})

	calls := 0
	fn := func(ctx context.Context) (string, error) {
		calls++
		return "response", nil
	}
	req := Request{CacheKey: "prompt-hash", Model: "claude-sonnet", InputTokens: 100, OutputTokens: 50}

	// First call goes upstream and consumes the only quota slot
	got, err := g.Do(context.Background(), req, fn)
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if got != "response" || calls != 1 {
		t.Fatalf("Expected upstream call, got %q (calls=%d)", got, calls)
	}

	// Second call hits the cache: no upstream call, no quota consumed
	got, err = g.Do(context.Background(), req, fn)
	if err != nil {
		t.Fatalf("Cached call failed: %v", err)
	}
	if got != "response" || calls != 1 {
		t.Errorf("Expected cache hit, got %q (calls=%d)", got, calls)
	}
	if qm.DailyUsage().RequestCount != 1 {
		t.Errorf("Expected cache hit to consume no quota, got %d requests", qm.DailyUsage().RequestCount)
	}
}

func TestGuard_EmptyCacheKeyDisablesCaching(t *testing.T) {
	g := New[string](Options[string]{Cache: newTestCache(t)})

	calls := 0
	fn := func(ctx context.Context) (string, error) {
		calls++
		return "response", nil
	}
	req := Request{Model: "m"}

	g.Do(context.Background(), req, fn)
	g.Do(context.Background(), req, fn)

	if calls != 2 {
		t.Errorf("Expected every call to go upstream without a cache key, got %d", calls)
	}
}

// ============================================================================
// Quota Rejection Tests
// ============================================================================

func TestGuard_QuotaRejection(t *testing.T) {
	qm := quota.NewManager(quota.NewConfig().WithDailyRequests(1), nil)
	g := New[string](Options[string]{Quota: qm})

	fn := func(ctx context.Context) (string, error) { return "ok", nil }
	req := Request{Model: "m", InputTokens: 10, OutputTokens: 5}

	if _, err := g.Do(context.Background(), req, fn); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	_, err := g.Do(context.Background(), req, fn)
	var exceeded *quota.ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *quota.ExceededError, got %v", err)
	}
	if exceeded.Scope != quota.ScopeDaily || exceeded.Kind != quota.KindRequests {
		t.Errorf("Expected Daily/request violation, got %s/%s", exceeded.Scope, exceeded.Kind)
	}
}

// ============================================================================
// Rate Limit Rejection Tests
// ============================================================================

func TestGuard_RateLimitRejection(t *testing.T) {
	g := New[string](Options[string]{Limiter: newTestLimiter(t, 2)})

	fn := func(ctx context.Context) (string, error) { return "ok", nil }
	req := Request{Model: "m"}

	for i := 0; i < 2; i++ {
		if _, err := g.Do(context.Background(), req, fn); err != nil {
			t.Fatalf("Call %d failed: %v", i+1, err)
		}
	}

	_, err := g.Do(context.Background(), req, fn)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

// ============================================================================
// Circuit Breaker Tests
// ============================================================================

func TestGuard_BreakerOpensAndRecovers(t *testing.T) {
	cb := newTestBreaker(t, 3, 100*time.Millisecond)
	g := New[string](Options[string]{Breaker: cb})

	req := Request{Model: "m"}
	failing := func(ctx context.Context) (string, error) { return "", errUpstream }

	// Three consecutive failures open the circuit
	for i := 0; i < 3; i++ {
		if _, err := g.Do(context.Background(), req, failing); !errors.Is(err, errUpstream) {
			t.Fatalf("Expected upstream error on call %d, got %v", i+1, err)
		}
	}
	if cb.State() != breaker.StateOpen {
		t.Fatalf("Expected open circuit, got %v", cb.State())
	}

	// While open, calls are rejected without reaching upstream
	reached := false
	_, err := g.Do(context.Background(), req, func(ctx context.Context) (string, error) {
		reached = true
		return "ok", nil
	})
	if !errors.Is(err, breaker.ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if reached {
		t.Error("Expected upstream not to be reached while open")
	}

	// After the cooldown a probe goes through and closes the circuit
	time.Sleep(150 * time.Millisecond)
	got, err := g.Do(context.Background(), req, func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if got != "recovered" {
		t.Errorf("Expected probe response, got %q", got)
	}
	if cb.State() != breaker.StateClosed {
		t.Errorf("Expected closed circuit after probe success, got %v", cb.State())
	}
}

// ============================================================================
// Full Pipeline Tests
// ============================================================================

func TestGuard_FullPipeline(t *testing.T) {
	recorder, err := history.NewRecorder(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer recorder.Close()

	calc := costs.NewCalculator()
	qm := quota.NewManager(quota.NewConfig().WithDailyRequests(10), calc)

	g := New[string](Options[string]{
		Cache:    newTestCache(t),
		Quota:    qm,
		Limiter:  newTestLimiter(t, 5),
		Breaker:  newTestBreaker(t, 3, time.Minute),
		Recorder: recorder,
	})

	ctx := context.Background()

	// One success, one upstream error
	_, err = g.Do(ctx, Request{CacheKey: "k1", Model: "claude-sonnet", InputTokens: 100, OutputTokens: 50},
		func(ctx context.Context) (string, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("Success call failed: %v", err)
	}

	_, err = g.Do(ctx, Request{CacheKey: "k2", Model: "claude-sonnet", InputTokens: 100, OutputTokens: 50},
		func(ctx context.Context) (string, error) { return "", errUpstream })
	if !errors.Is(err, errUpstream) {
		t.Fatalf("Expected upstream error, got %v", err)
	}

	// Both calls landed in the audit trail with their outcomes
	records, err := recorder.Query(ctx, history.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 audit records, got %d", len(records))
	}

	outcomes := map[history.Outcome]int{}
	for _, rec := range records {
		outcomes[rec.Outcome]++
	}
	if outcomes[history.OutcomeSuccess] != 1 || outcomes[history.OutcomeError] != 1 {
		t.Errorf("Expected one success and one error record, got %v", outcomes)
	}

	// Quota accounted both calls: the error still consumed its reservation
	if got := qm.DailyUsage().RequestCount; got != 2 {
		t.Errorf("Expected 2 recorded requests, got %d", got)
	}
}

func TestGuard_NilComponentsPassThrough(t *testing.T) {
	g := New[int](Options[int]{})

	got, err := g.Do(context.Background(), Request{Model: "m"}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
}
