package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// This is the default backend and provides fast access with no persistence.
// All data is lost when the process exits.
//
// MemoryBackend is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryBackend struct {
	// snapshots maps snapshot ID to the stored snapshot.
	snapshots map[string]*Snapshot

	// maxEntries bounds the number of stored snapshots. The snapshot with
	// the oldest capture time is evicted when the bound is reached.
	maxEntries int

	// mu protects access to snapshots.
	mu sync.RWMutex
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// MaxEntries is the maximum number of snapshots to keep.
	// Default: 1000.
	MaxEntries int
}

// NewMemoryBackend creates an in-memory backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{MaxEntries: 1000})
}

// NewMemoryBackendWithConfig creates an in-memory backend with custom configuration.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}

	return &MemoryBackend{
		snapshots:  make(map[string]*Snapshot),
		maxEntries: cfg.MaxEntries,
	}
}

// Save persists a snapshot, replacing any existing snapshot with the same ID.
func (m *MemoryBackend) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.snapshots[snapshot.ID]; !exists && len(m.snapshots) >= m.maxEntries {
		m.evictOldestLocked()
	}

	copied := *snapshot
	copied.Models = copyModels(snapshot.Models)
	m.snapshots[snapshot.ID] = &copied

	return nil
}

// Load retrieves a snapshot by ID. Returns nil, nil if none exists.
func (m *MemoryBackend) Load(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}

	copied := *s
	copied.Models = copyModels(s.Models)
	return &copied, nil
}

// List returns all stored snapshots.
func (m *MemoryBackend) List(ctx context.Context) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		copied := *s
		copied.Models = copyModels(s.Models)
		out = append(out, &copied)
	}

	return out, nil
}

// Delete removes a snapshot by ID. No-op if it does not exist.
func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, id)
	return nil
}

// Cleanup removes snapshots captured before the given time.
func (m *MemoryBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.snapshots {
		if s.CapturedAt.Before(olderThan) {
			delete(m.snapshots, id)
			removed++
		}
	}

	return removed, nil
}

// Close releases backend resources. For the memory backend this clears the map.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots = make(map[string]*Snapshot)
	return nil
}

// evictOldestLocked removes the snapshot with the oldest capture time.
// Caller must hold write lock and guarantee the map is non-empty.
func (m *MemoryBackend) evictOldestLocked() {
	var oldestID string
	var oldestTime time.Time
	first := true

	for id, s := range m.snapshots {
		if first || s.CapturedAt.Before(oldestTime) {
			oldestID = id
			oldestTime = s.CapturedAt
			first = false
		}
	}

	delete(m.snapshots, oldestID)
}

// copyModels deep-copies a model metrics map.
func copyModels(models map[string]Metrics) map[string]Metrics {
	if models == nil {
		return nil
	}

	out := make(map[string]Metrics, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}
