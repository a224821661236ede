package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/forgery/internal/store"
	"github.com/roach88/forgery/internal/telemetry"
	"github.com/roach88/forgery/internal/testutil"
	"github.com/roach88/forgery/internal/topology"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory run log for isolation.
// Execution flow:
//  1. Open an in-memory store
//  2. Load, validate and build the topology
//  3. Attach a recorder with a fixed run id
//  4. Tick the clock scenario.Ticks times
//  5. Read the delivery trace back from the store and evaluate assertions
//
// Returned errors are setup failures. Failed assertions are reported in
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	topo, err := topology.Load(scenario.Topology)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	sim, err := topology.New(topo)
	if err != nil {
		return nil, fmt.Errorf("failed to build topology: %w", err)
	}

	rec, err := telemetry.NewRecorder(ctx, st, sim, telemetry.RecorderOptions{
		Topology: scenario.Name,
		IDs:      testutil.NewFixedRunIDGenerator(scenario.RunID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	sim.Start()
	ran := sim.Step(int(scenario.Ticks))
	sim.Stop()
	final := sim.Snapshot()

	if err := rec.Finish(ctx, final.Tick); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	slog.Debug("scenario ticked",
		"scenario", scenario.Name,
		"run_id", rec.RunID(),
		"ticks", ran,
	)

	deliveries, err := st.ReadDeliveries(ctx, rec.RunID())
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	result := NewResult()
	result.RunID = rec.RunID()
	result.Final = final
	for _, d := range deliveries {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:  d.Seq,
			Tick: d.Tick,
			Sink: d.Sink,
			Kind: d.Material,
		})
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}
