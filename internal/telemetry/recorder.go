package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/store"
)

// Recorder writes a simulation's per-tick samples and deliveries to a run
// log.
//
// Handlers cannot return errors, so the first write failure is kept and
// reported by Err and Finish; later ticks keep running and are not
// recorded.
type Recorder struct {
	store *store.Store
	runID string
	ctx   context.Context
	// every samples only ticks divisible by it.
	every int64

	mu  sync.Mutex
	seq int64
	err error
}

// RecorderOptions configures NewRecorder.
type RecorderOptions struct {
	// Topology names the layout being run, usually its directory.
	Topology string

	// SampleEvery records samples every n ticks. Zero or one samples every
	// tick.
	SampleEvery int64

	// IDs generates the run id. Defaults to UUIDv7Generator.
	IDs RunIDGenerator
}

// NewRecorder creates a run record for sim and subscribes to its ticks and
// deliveries. Call it after the graph is fully wired so sampling runs after
// every component has reacted to a tick.
func NewRecorder(ctx context.Context, st *store.Store, sim *engine.Simulation, opts RecorderOptions) (*Recorder, error) {
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	every := opts.SampleEvery
	if every < 1 {
		every = 1
	}

	snap := sim.Snapshot()
	run := store.Run{
		ID:        ids.Generate(),
		Topology:  opts.Topology,
		Summary:   Summarize(snap),
		StartTick: snap.Tick,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	r := &Recorder{store: st, runID: run.ID, ctx: ctx, every: every}
	sim.OnTick(func(...any) {
		r.sample(sim.SnapshotInTick())
	})
	sim.OnDelivered(func(args ...any) {
		if d, ok := args[0].(engine.Delivery); ok {
			r.deliver(d)
		}
	})

	slog.Info("recording run", "run_id", run.ID, "topology", opts.Topology)
	return r, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Finish stamps the run's final tick and returns the first failure seen
// while recording.
func (r *Recorder) Finish(ctx context.Context, finalTick int64) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := r.store.FinishRun(ctx, r.runID, finalTick); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}

func (r *Recorder) sample(snap engine.Snapshot) {
	if snap.Tick%r.every != 0 || r.failed() {
		return
	}
	if err := r.store.WriteSamples(r.ctx, r.runID, Samples(snap)); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) deliver(d engine.Delivery) {
	if r.failed() {
		return
	}
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	err := r.store.WriteDelivery(r.ctx, r.runID, store.Delivery{
		Seq:      seq,
		Tick:     d.Tick,
		Sink:     d.Sink,
		Material: d.Kind,
	})
	if err != nil {
		r.fail(err)
	}
}

func (r *Recorder) failed() bool {
	return r.Err() != nil
}

func (r *Recorder) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = fmt.Errorf("recorder: %w", err)
		slog.Error("recording stopped", "run_id", r.runID, "error", err)
	}
}

// Summarize counts the components in a snapshot.
func Summarize(snap engine.Snapshot) store.Summary {
	return store.Summary{
		Sources:   len(snap.Sources),
		Belts:     len(snap.Belts),
		Buildings: len(snap.Buildings),
		Sinks:     len(snap.Sinks),
	}
}

// Samples flattens a snapshot into one sample per component.
func Samples(snap engine.Snapshot) []store.Sample {
	out := make([]store.Sample, 0, len(snap.Sources)+len(snap.Belts)+len(snap.Buildings)+len(snap.Sinks))
	for _, s := range snap.Sources {
		out = append(out, store.Sample{Tick: snap.Tick, Component: s.ID, Kind: string(engine.KindSource), Value: s.TotalProduced})
	}
	for _, b := range snap.Belts {
		out = append(out, store.Sample{Tick: snap.Tick, Component: b.ID, Kind: string(engine.KindBelt), Value: int64(b.Occupancy)})
	}
	for _, b := range snap.Buildings {
		out = append(out, store.Sample{Tick: snap.Tick, Component: b.ID, Kind: string(engine.KindBuilding), Value: int64(b.Held)})
	}
	for _, s := range snap.Sinks {
		out = append(out, store.Sample{Tick: snap.Tick, Component: s.ID, Kind: string(engine.KindSink), Value: int64(s.Delivered)})
	}
	return out
}
