// Package history provides an append-only audit trail of LLM usage records.
//
// # Overview
//
// The Recorder appends one Record per completed (or rejected) request to a
// SQLite database: model, token counts, cost, and outcome, each keyed by a
// generated UUID. Records support time- and model-scoped queries for
// offline cost analysis.
//
//	rec, _ := history.NewRecorder("usage.db")
//	defer rec.Close()
//	rec.Record(ctx, &history.Record{
//	    Model:        "claude-sonnet-4",
//	    InputTokens:  1200,
//	    OutputTokens: 400,
//	    Cost:         0.0096,
//	    Outcome:      history.OutcomeSuccess,
//	})
//
// # Retention
//
// Old records are pruned with Prune, or automatically by a Scheduler
// running a cron expression (e.g. "0 3 * * *" for daily at 3 AM).
package history
