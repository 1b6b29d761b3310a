// Package costs calculates monetary cost for LLM requests from token counts.
//
// # Overview
//
// The Calculator resolves a model name to per-million-token prices using a
// static table: exact match first, then longest prefix match (so "gpt-4o"
// covers "gpt-4o-2024-08-06"), then a default tier. Unknown models never
// error; they price at the default tier.
//
//	calc := costs.NewCalculator()
//	cost := calc.Cost("claude-sonnet-4", 1200, 400)
//
// # Pricing as Configuration
//
// Price points drift over time and are not a frozen interface. The
// compiled-in table is a fallback; deployments load current prices from
// configuration and may hot-swap them with Update.
//
// # Thread Safety
//
// The Calculator is safe for concurrent use; Update swaps the table under
// a write lock.
package costs
