package storage

import (
	"context"
	"time"
)

// Metrics is the persisted form of one accounting bucket.
// It mirrors the quota package's usage metrics without importing it, so
// backends stay independent of the packages they persist for.
type Metrics struct {
	RequestCount int64     `json:"request_count"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	TotalCost    float64   `json:"total_cost"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end,omitempty"`
}

// Snapshot is a point-in-time capture of quota state.
type Snapshot struct {
	// ID identifies the snapshot. The quota manager uses a stable ID per
	// manager so each save replaces the previous snapshot.
	ID string `json:"id"`

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time `json:"captured_at"`

	// Daily is the daily accounting bucket.
	Daily Metrics `json:"daily"`

	// Monthly is the monthly accounting bucket.
	Monthly Metrics `json:"monthly"`

	// Models maps model names to their accounting buckets.
	Models map[string]Metrics `json:"models"`
}

// Backend is the interface quota snapshot stores implement.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save persists a snapshot, replacing any existing snapshot with the
	// same ID.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load retrieves a snapshot by ID. Returns nil, nil if none exists.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List returns all stored snapshots.
	List(ctx context.Context) ([]*Snapshot, error)

	// Delete removes a snapshot by ID. No-op if it does not exist.
	Delete(ctx context.Context, id string) error

	// Cleanup removes snapshots captured before the given time.
	// Returns the number removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases backend resources. The backend must not be used
	// after Close.
	Close() error
}
