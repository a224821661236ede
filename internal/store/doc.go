// Package store provides a SQLite-backed log of simulation runs.
//
// The log is append-only and holds:
//   - Runs: one row per run, keyed by a time-ordered run id
//   - Samples: one value per component per recorded tick
//   - Deliveries: every unit taken by a sink, in delivery order
//
// The log is written while a simulation runs and read back by tooling. It
// is never used to restore a simulation.
//
// # Ordering
//
//   - All ordering uses logical ticks and per-run sequence numbers, never
//     timestamps
//   - Queries include an explicit ORDER BY so results are identical across
//     reads
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
