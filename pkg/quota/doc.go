// Package quota enforces usage and cost ceilings for LLM requests.
//
// # Overview
//
// The Manager tracks request counts, token counts, and cumulative cost in
// three independent buckets: daily, monthly, and per-model. Configured
// ceilings are enforced check-then-commit: a request that would exceed any
// ceiling is rejected before any counter is mutated.
//
//	manager := quota.NewManager(
//	    quota.NewConfig().
//	        WithDailyRequests(10000).
//	        WithDailyCost(50.00).
//	        WithMonthlyCost(1000.00),
//	    costs.NewCalculator(),
//	)
//
//	if err := manager.RecordUsage("claude-sonnet-4", 1200, 400); err != nil {
//	    var exceeded *quota.ExceededError
//	    if errors.As(err, &exceeded) {
//	        // Surface which ceiling was hit
//	    }
//	}
//
// # Atomicity
//
// The check and commit phases run under one write lock, so two concurrent
// calls can never both pass a check that only one of them fits under.
//
// # Persistence
//
// State is in-memory by default. WithStorage attaches a storage.Backend
// that receives best-effort snapshots after commits and resets; ExportJSON
// provides the serialization surface for external snapshotting.
package quota
