package quota

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/bulwark/pkg/costs"
	"mercator-hq/bulwark/pkg/storage"
)

// flatCalculator returns a calculator pricing every model at 1 USD per
// million tokens in both directions, so 10 input + 5 output = $0.000015.
func flatCalculator() *costs.Calculator {
	return costs.NewCalculatorWithTable(costs.Table{
		costs.DefaultTierKey: {InputPerMTok: 1, OutputPerMTok: 1},
	})
}

// ============================================================================
// Recording Tests
// ============================================================================

func TestManager_RecordUsageUnlimited(t *testing.T) {
	m := NewManager(NewConfig(), flatCalculator())

	for i := 0; i < 5; i++ {
		if err := m.RecordUsage("claude-sonnet-4", 100, 50); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	daily := m.DailyUsage()
	if daily.RequestCount != 5 {
		t.Errorf("Expected 5 requests, got %d", daily.RequestCount)
	}
	if daily.InputTokens != 500 || daily.OutputTokens != 250 {
		t.Errorf("Expected 500/250 tokens, got %d/%d", daily.InputTokens, daily.OutputTokens)
	}
	if daily.TotalTokens() != 750 {
		t.Errorf("Expected 750 total tokens, got %d", daily.TotalTokens())
	}

	monthly := m.MonthlyUsage()
	if monthly.RequestCount != 5 {
		t.Errorf("Expected monthly bucket to mirror daily, got %d requests", monthly.RequestCount)
	}
}

func TestManager_PerModelAccounting(t *testing.T) {
	m := NewManager(NewConfig(), flatCalculator())

	m.RecordUsage("model-a", 10, 5)
	m.RecordUsage("model-a", 10, 5)
	m.RecordUsage("model-b", 20, 10)

	a, ok := m.ModelUsage("model-a")
	if !ok {
		t.Fatal("Expected usage for model-a")
	}
	if a.RequestCount != 2 || a.InputTokens != 20 {
		t.Errorf("Expected 2 requests / 20 input tokens for model-a, got %d / %d", a.RequestCount, a.InputTokens)
	}

	if _, ok := m.ModelUsage("model-c"); ok {
		t.Error("Expected no usage for unrecorded model")
	}

	all := m.AllModelUsage()
	if len(all) != 2 {
		t.Errorf("Expected 2 model buckets, got %d", len(all))
	}
}

// ============================================================================
// Ceiling Enforcement Tests
// ============================================================================

func TestManager_DailyRequestLimit(t *testing.T) {
	cfg := NewConfig().WithDailyRequests(2)
	m := NewManager(cfg, flatCalculator())

	if err := m.RecordUsage("m", 10, 5); err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if err := m.RecordUsage("m", 10, 5); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	err := m.RecordUsage("m", 10, 5)
	if err == nil {
		t.Fatal("Expected third call to exceed the daily request limit")
	}

	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *ExceededError, got %T", err)
	}
	if exceeded.Scope != ScopeDaily || exceeded.Kind != KindRequests {
		t.Errorf("Expected Daily/request violation, got %s/%s", exceeded.Scope, exceeded.Kind)
	}
	if !strings.Contains(err.Error(), "Daily request limit exceeded") {
		t.Errorf("Unexpected error message: %v", err)
	}

	// The rejected call must leave all counters untouched
	if got := m.DailyUsage().RequestCount; got != 2 {
		t.Errorf("Expected request count to stay at 2, got %d", got)
	}
	if got := m.MonthlyUsage().RequestCount; got != 2 {
		t.Errorf("Expected monthly count to stay at 2, got %d", got)
	}
}

func TestManager_DailyTokenLimit(t *testing.T) {
	cfg := NewConfig().WithDailyTokens(100)
	m := NewManager(cfg, flatCalculator())

	if err := m.RecordUsage("m", 60, 30); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	err := m.RecordUsage("m", 10, 5)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *ExceededError, got %v", err)
	}
	if exceeded.Kind != KindTokens {
		t.Errorf("Expected token violation, got %s", exceeded.Kind)
	}
	if exceeded.Limit != 100 || exceeded.Attempted != 105 {
		t.Errorf("Expected limit 100 / attempted 105, got %v / %v", exceeded.Limit, exceeded.Attempted)
	}
}

func TestManager_DailyCostLimit(t *testing.T) {
	// $10 per million tokens in both directions: 1000+1000 tokens = $0.02
	calc := costs.NewCalculatorWithTable(costs.Table{
		costs.DefaultTierKey: {InputPerMTok: 10, OutputPerMTok: 10},
	})
	cfg := NewConfig().WithDailyCost(0.03)
	m := NewManager(cfg, calc)

	if err := m.RecordUsage("m", 1000, 1000); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	err := m.RecordUsage("m", 1000, 1000)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *ExceededError, got %v", err)
	}
	if exceeded.Kind != KindCost || exceeded.Scope != ScopeDaily {
		t.Errorf("Expected Daily/cost violation, got %s/%s", exceeded.Scope, exceeded.Kind)
	}
	if !strings.Contains(err.Error(), "0.0300") {
		t.Errorf("Expected cost formatted to four decimals, got %v", err)
	}
}

func TestManager_MonthlyLimitCheckedAfterDaily(t *testing.T) {
	// Both ceilings would be violated; the daily one reports first.
	cfg := NewConfig().WithDailyRequests(1).WithMonthlyRequests(1)
	m := NewManager(cfg, flatCalculator())

	m.RecordUsage("m", 1, 1)

	err := m.RecordUsage("m", 1, 1)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *ExceededError, got %v", err)
	}
	if exceeded.Scope != ScopeDaily {
		t.Errorf("Expected daily scope to report first, got %s", exceeded.Scope)
	}
}

func TestManager_MonthlyLimitSurvivesDailyReset(t *testing.T) {
	cfg := NewConfig().WithMonthlyRequests(2)
	m := NewManager(cfg, flatCalculator())

	m.RecordUsage("m", 1, 1)
	m.RecordUsage("m", 1, 1)
	m.ResetDaily()

	err := m.RecordUsage("m", 1, 1)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected monthly ceiling to hold across daily reset, got %v", err)
	}
	if exceeded.Scope != ScopeMonthly {
		t.Errorf("Expected Monthly scope, got %s", exceeded.Scope)
	}
}

// ============================================================================
// Reset Tests
// ============================================================================

func TestManager_ResetDaily(t *testing.T) {
	m := NewManager(NewConfig(), flatCalculator())

	m.RecordUsage("m", 10, 5)
	m.ResetDaily()

	daily := m.DailyUsage()
	if daily.RequestCount != 0 || daily.TotalTokens() != 0 || daily.TotalCost != 0 {
		t.Errorf("Expected zeroed daily bucket, got %+v", daily)
	}
	if m.MonthlyUsage().RequestCount != 1 {
		t.Error("Expected monthly bucket unaffected by daily reset")
	}
	if usage, ok := m.ModelUsage("m"); !ok || usage.RequestCount != 1 {
		t.Error("Expected per-model bucket unaffected by daily reset")
	}
}

func TestManager_ResetMonthly(t *testing.T) {
	m := NewManager(NewConfig(), flatCalculator())

	m.RecordUsage("m", 10, 5)
	m.ResetMonthly()

	if m.MonthlyUsage().RequestCount != 0 {
		t.Error("Expected zeroed monthly bucket")
	}
	if m.DailyUsage().RequestCount != 1 {
		t.Error("Expected daily bucket unaffected by monthly reset")
	}
}

// ============================================================================
// Export Tests
// ============================================================================

func TestManager_ExportJSON(t *testing.T) {
	m := NewManager(NewConfig(), flatCalculator())
	m.RecordUsage("model-a", 100, 50)

	out, err := m.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var snapshot struct {
		ExportedAt time.Time               `json:"exported_at"`
		Daily      UsageMetrics            `json:"daily"`
		Monthly    UsageMetrics            `json:"monthly"`
		Models     map[string]UsageMetrics `json:"models"`
	}
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}

	if snapshot.Daily.RequestCount != 1 {
		t.Errorf("Expected 1 daily request in export, got %d", snapshot.Daily.RequestCount)
	}
	if snapshot.Models["model-a"].InputTokens != 100 {
		t.Errorf("Expected model bucket in export, got %+v", snapshot.Models)
	}
	if snapshot.ExportedAt.IsZero() {
		t.Error("Expected export timestamp")
	}
}

// ============================================================================
// Persistence Tests
// ============================================================================

func TestManager_PersistsSnapshots(t *testing.T) {
	backend := storage.NewMemoryBackend()
	m := NewManager(NewConfig(), flatCalculator(), WithStorage(backend, "test-quota"))

	m.RecordUsage("m", 10, 5)

	// Snapshots are written asynchronously
	deadline := time.Now().Add(time.Second)
	for {
		snap, err := backend.Load(context.Background(), "test-quota")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if snap != nil {
			if snap.Daily.RequestCount != 1 {
				t.Errorf("Expected persisted request count 1, got %d", snap.Daily.RequestCount)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected snapshot to be persisted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_PersistKeepsNewestSnapshot(t *testing.T) {
	backend := storage.NewMemoryBackend()
	m := NewManager(NewConfig(), flatCalculator(), WithStorage(backend, "seq-quota"))

	// Concurrent commits each capture a snapshot; the backend must end up
	// holding the one with the highest request count regardless of the
	// order the save goroutines run in.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordUsage("m", 1, 1)
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for {
		snap, err := backend.Load(context.Background(), "seq-quota")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if snap != nil && snap.Daily.RequestCount == 20 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected final snapshot with 20 requests, got %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// No straggler goroutine may replace it with a stale snapshot
	time.Sleep(50 * time.Millisecond)
	snap, err := backend.Load(context.Background(), "seq-quota")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Daily.RequestCount != 20 {
		t.Errorf("Expected snapshot to stay at 20 requests, got %d", snap.Daily.RequestCount)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestManager_ConcurrentRecording(t *testing.T) {
	cfg := NewConfig().WithDailyRequests(50)
	m := NewManager(cfg, flatCalculator())

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.RecordUsage("m", 1, 1); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Check and commit share one critical section, so exactly the limit
	// may pass.
	if accepted != 50 {
		t.Errorf("Expected exactly 50 accepted, got %d", accepted)
	}
	if got := m.DailyUsage().RequestCount; got != 50 {
		t.Errorf("Expected request count 50, got %d", got)
	}
}
