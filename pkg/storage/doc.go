// Package storage provides persistence backends for quota usage snapshots.
//
// # Overview
//
// Quota state is in-memory by default; this package exists for deployments
// that want usage to survive inspection or restarts via periodic snapshots.
// Two backends are provided:
//
//   - MemoryBackend: fast, bounded, no persistence (the default)
//   - SQLiteBackend: durable single-instance persistence using WAL mode
//
// Backends store point-in-time Snapshot values; they are not a transaction
// log and are written best-effort by the quota manager.
//
// # Thread Safety
//
// All backends are safe for concurrent use.
package storage
