package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"mercator-hq/bulwark/pkg/costs"
	"mercator-hq/bulwark/pkg/storage"
)

// Manager tracks usage across daily, monthly, and per-model buckets and
// enforces the configured ceilings.
//
// All three buckets live behind a single RWMutex. RecordUsage holds the
// write lock across its check and commit phases, so two concurrent calls
// can never both pass a check that only one of them fits under.
type Manager struct {
	config     Config
	calculator *costs.Calculator

	daily   UsageMetrics
	monthly UsageMetrics
	models  map[string]*UsageMetrics

	// backend receives best-effort snapshots after commits and resets.
	// Nil means no persistence.
	backend    storage.Backend
	snapshotID string

	// saveSeq orders snapshots at capture time; savedSeq is the highest
	// sequence handed to the backend. Together they prevent a slow save
	// goroutine from overwriting a newer snapshot with an older one.
	saveSeq  uint64
	saveMu   sync.Mutex
	savedSeq uint64

	mu sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithStorage attaches a snapshot backend. Snapshots are written
// best-effort after each commit and reset; failures never affect the
// outcome of RecordUsage.
func WithStorage(backend storage.Backend, snapshotID string) Option {
	return func(m *Manager) {
		m.backend = backend
		m.snapshotID = snapshotID
	}
}

// NewManager creates a quota manager. A nil calculator falls back to the
// compiled-in default price table.
func NewManager(config Config, calculator *costs.Calculator, opts ...Option) *Manager {
	if calculator == nil {
		calculator = costs.NewCalculator()
	}

	now := time.Now()
	m := &Manager{
		config:     config,
		calculator: calculator,
		daily:      UsageMetrics{PeriodStart: now},
		monthly:    UsageMetrics{PeriodStart: now},
		models:     make(map[string]*UsageMetrics),
		snapshotID: "quota",
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RecordUsage records one completed request against the model.
//
// The cost is computed from the calculator's price table. Ceilings are
// evaluated read-only in a fixed order: daily request, token, cost, then
// monthly request, token, cost. The first violation is returned as an
// *ExceededError with no counters mutated. Only when every check passes
// are the daily, monthly, and per-model buckets incremented together.
func (m *Manager) RecordUsage(model string, inputTokens, outputTokens int) error {
	cost := m.calculator.Cost(model, inputTokens, outputTokens)
	tokens := int64(inputTokens) + int64(outputTokens)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check phase: no state is mutated until every ceiling passes.
	if err := m.checkLocked(ScopeDaily, &m.daily, tokens, cost); err != nil {
		return err
	}
	if err := m.checkLocked(ScopeMonthly, &m.monthly, tokens, cost); err != nil {
		return err
	}

	// Commit phase.
	m.daily.apply(inputTokens, outputTokens, cost)
	m.monthly.apply(inputTokens, outputTokens, cost)

	mm, ok := m.models[model]
	if !ok {
		mm = &UsageMetrics{PeriodStart: time.Now()}
		m.models[model] = mm
	}
	mm.apply(inputTokens, outputTokens, cost)

	m.persistLocked()
	return nil
}

// checkLocked evaluates one scope's ceilings against the prospective usage.
// Caller must hold the write lock.
func (m *Manager) checkLocked(scope Scope, metrics *UsageMetrics, tokens int64, cost float64) error {
	var reqLimit, tokLimit int64
	var costLimit float64

	switch scope {
	case ScopeDaily:
		reqLimit = m.config.DailyRequestLimit
		tokLimit = m.config.DailyTokenLimit
		costLimit = m.config.DailyCostLimit
	case ScopeMonthly:
		reqLimit = m.config.MonthlyRequestLimit
		tokLimit = m.config.MonthlyTokenLimit
		costLimit = m.config.MonthlyCostLimit
	}

	if reqLimit > 0 && metrics.RequestCount+1 > reqLimit {
		return &ExceededError{
			Scope:     scope,
			Kind:      KindRequests,
			Limit:     float64(reqLimit),
			Attempted: float64(metrics.RequestCount + 1),
		}
	}

	if tokLimit > 0 && metrics.TotalTokens()+tokens > tokLimit {
		return &ExceededError{
			Scope:     scope,
			Kind:      KindTokens,
			Limit:     float64(tokLimit),
			Attempted: float64(metrics.TotalTokens() + tokens),
		}
	}

	if costLimit > 0 && metrics.TotalCost+cost > costLimit {
		return &ExceededError{
			Scope:     scope,
			Kind:      KindCost,
			Limit:     costLimit,
			Attempted: metrics.TotalCost + cost,
		}
	}

	return nil
}

// apply increments one bucket with a request's usage.
func (m *UsageMetrics) apply(inputTokens, outputTokens int, cost float64) {
	m.RequestCount++
	m.InputTokens += int64(inputTokens)
	m.OutputTokens += int64(outputTokens)
	m.TotalCost += cost
}

// DailyUsage returns a snapshot of the daily bucket.
func (m *Manager) DailyUsage() UsageMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.daily
}

// MonthlyUsage returns a snapshot of the monthly bucket.
func (m *Manager) MonthlyUsage() UsageMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.monthly
}

// ModelUsage returns a snapshot of one model's bucket.
// The second return value reports whether the model has recorded usage.
func (m *Manager) ModelUsage(model string) (UsageMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mm, ok := m.models[model]
	if !ok {
		return UsageMetrics{}, false
	}
	return *mm, true
}

// AllModelUsage returns snapshots of every model bucket.
func (m *Manager) AllModelUsage() map[string]UsageMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]UsageMetrics, len(m.models))
	for model, mm := range m.models {
		out[model] = *mm
	}
	return out
}

// ResetDaily zeroes the daily bucket and starts a new period.
// The monthly and per-model buckets are unaffected.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.daily.PeriodEnd = time.Now()
	m.daily = UsageMetrics{PeriodStart: time.Now()}
	m.persistLocked()
}

// ResetMonthly zeroes the monthly bucket and starts a new period.
// The daily and per-model buckets are unaffected.
func (m *Manager) ResetMonthly() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.monthly.PeriodEnd = time.Now()
	m.monthly = UsageMetrics{PeriodStart: time.Now()}
	m.persistLocked()
}

// exportSnapshot is the JSON shape produced by ExportJSON.
type exportSnapshot struct {
	ExportedAt time.Time               `json:"exported_at"`
	Daily      UsageMetrics            `json:"daily"`
	Monthly    UsageMetrics            `json:"monthly"`
	Models     map[string]UsageMetrics `json:"models"`
}

// ExportJSON serializes a snapshot of the daily, monthly, and per-model
// buckets. This is the manager's only serialization surface, intended for
// periodic external snapshotting.
func (m *Manager) ExportJSON() (string, error) {
	m.mu.RLock()
	snapshot := exportSnapshot{
		ExportedAt: time.Now(),
		Daily:      m.daily,
		Monthly:    m.monthly,
		Models:     make(map[string]UsageMetrics, len(m.models)),
	}
	for model, mm := range m.models {
		snapshot.Models[model] = *mm
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export quota state: %w", err)
	}
	return string(data), nil
}

// persistLocked writes a best-effort snapshot to the backend, if any.
// Caller must hold the write lock. Errors are deliberately dropped: the
// backend is a snapshot sink, not a source of truth.
//
// Snapshots are sequenced at capture time, while the write lock is held,
// and the save goroutine skips any snapshot that is no longer the newest
// when its turn comes. Saves themselves are serialized by saveMu.
func (m *Manager) persistLocked() {
	if m.backend == nil {
		return
	}

	m.saveSeq++
	seq := m.saveSeq

	snapshot := &storage.Snapshot{
		ID:         m.snapshotID,
		CapturedAt: time.Now(),
		Daily:      toStorageMetrics(m.daily),
		Monthly:    toStorageMetrics(m.monthly),
		Models:     make(map[string]storage.Metrics, len(m.models)),
	}
	for model, mm := range m.models {
		snapshot.Models[model] = toStorageMetrics(*mm)
	}

	go func() {
		m.saveMu.Lock()
		defer m.saveMu.Unlock()

		if seq <= m.savedSeq {
			// A newer snapshot has already been handed to the backend.
			return
		}
		m.savedSeq = seq
		_ = m.backend.Save(context.Background(), snapshot)
	}()
}

// toStorageMetrics converts a usage bucket to its persisted form.
func toStorageMetrics(m UsageMetrics) storage.Metrics {
	return storage.Metrics{
		RequestCount: m.RequestCount,
		InputTokens:  m.InputTokens,
		OutputTokens: m.OutputTokens,
		TotalCost:    m.TotalCost,
		PeriodStart:  m.PeriodStart,
		PeriodEnd:    m.PeriodEnd,
	}
}
