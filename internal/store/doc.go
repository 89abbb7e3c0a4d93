// Package store provides SQLite-backed history of analysis runs.
//
// Each saved run records its identity hashes and the findings,
// missing-screen findings and warnings it produced:
//   - runs: one row per analysis run, keyed by run ID
//   - findings: per-screen findings, in report order
//   - missing_screens: flow-level findings, in report order
//   - warnings: skipped clauses and ignored patterns
//
// # Ordering
//
// Runs are ordered by a logical seq assigned at save time, never by wall
// clock. Child rows carry their position in the report as seq, and every
// query orders by it, so a run reads back exactly as it was produced.
//
// # Idempotency
//
// Saving a run whose ID already exists is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
