// Package telemetry records and exports what a running simulation does.
//
// Recorder writes per-tick samples and deliveries to the SQLite run log in
// internal/store under a UUIDv7 run id. Collector mirrors the same
// snapshots into Prometheus counters and gauges.
//
// Both subscribe to the simulation clock after the graph is wired, so they
// observe each tick only after every component has reacted to it. They read
// state through Simulation.SnapshotInTick and never mutate it.
package telemetry
