package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Outcome classifies how a request concluded.
type Outcome string

const (
	// OutcomeSuccess is a completed upstream call.
	OutcomeSuccess Outcome = "success"

	// OutcomeError is an upstream call that failed.
	OutcomeError Outcome = "error"

	// OutcomeRejected is a call stopped client-side (rate limit, quota,
	// open circuit) before reaching upstream.
	OutcomeRejected Outcome = "rejected"
)

// Record is one usage audit entry.
type Record struct {
	// ID is a generated UUID. Assigned by the Recorder if empty.
	ID string

	// Timestamp is when the request concluded. Assigned by the Recorder
	// if zero.
	Timestamp time.Time

	// Model is the model the request targeted.
	Model string

	// InputTokens is the prompt token count.
	InputTokens int

	// OutputTokens is the completion token count.
	OutputTokens int

	// Cost is the request cost in USD.
	Cost float64

	// Outcome classifies how the request concluded.
	Outcome Outcome
}

// Recorder appends usage records to a SQLite database.
// It is safe for concurrent use; database/sql serializes access.
type Recorder struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// NewRecorder opens (or creates) the audit database at path.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id            TEXT PRIMARY KEY,
		timestamp     TIMESTAMP NOT NULL,
		model         TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cost          REAL NOT NULL,
		outcome       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_records_timestamp ON usage_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_usage_records_model ON usage_records(model);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO usage_records (id, timestamp, model, input_tokens, output_tokens, cost, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	return &Recorder{db: db, insertStmt: insertStmt}, nil
}

// Record appends one usage record. Missing ID and Timestamp fields are
// filled in; the caller's Record is not modified.
func (r *Recorder) Record(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := r.insertStmt.ExecContext(ctx,
		id, ts, record.Model, record.InputTokens, record.OutputTokens,
		record.Cost, string(record.Outcome))
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	return nil
}

// QueryFilter scopes a Query. Zero values mean unfiltered.
type QueryFilter struct {
	// Model restricts results to one model.
	Model string

	// Since restricts results to records at or after this time.
	Since time.Time

	// Until restricts results to records before this time.
	Until time.Time

	// Limit bounds the number of results. Zero means no bound.
	Limit int
}

// Query returns records matching the filter, newest first.
func (r *Recorder) Query(ctx context.Context, filter QueryFilter) ([]*Record, error) {
	query := `SELECT id, timestamp, model, input_tokens, output_tokens, cost, outcome
		FROM usage_records WHERE 1=1`
	var args []any

	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp < ?"
		args = append(args, filter.Until)
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.Cost, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Prune deletes records older than the given time and returns the count
// removed.
func (r *Recorder) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned records: %w", err)
	}
	return int(affected), nil
}

// Close releases the prepared statement and database handle.
func (r *Recorder) Close() error {
	if r.insertStmt != nil {
		r.insertStmt.Close()
	}
	return r.db.Close()
}
