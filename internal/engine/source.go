package engine

import (
	"log/slog"

	"github.com/roach88/forgery/internal/event"
)

// Source produces material at a fixed rate.
//
// Production accrues from the tick the source was created. On every Second
// tick the source computes how many whole units are due in total, emits the
// difference from what it has already emitted, and publishes one
// TopicMaterialReady per unit. Units not claimed during that tick are
// discarded when the next tick begins.
type Source struct {
	id         string
	clock      *Clock
	kind       Material
	rate       Rate
	maxOutputs int
	events     *event.Channel

	origin       int64
	emitted      int64
	lastEmit     int64
	started      bool
	lastProduced int
	pending      []Material

	outputs []string
}

// NewSource creates a source and subscribes it to the clock's Second tick.
// maxOutputs bounds ConnectOutput.
func NewSource(clock *Clock, id string, kind Material, rate Rate, maxOutputs int) (*Source, error) {
	if rate.IsZero() {
		return nil, newConfigError(ErrCodeInvalidRate, id, "source rate must be > 0")
	}
	if maxOutputs < 0 {
		return nil, newConfigError(ErrCodeInvalidPorts, id, "source outputs must be >= 0, got %d", maxOutputs)
	}

	s := &Source{
		id:         id,
		clock:      clock,
		kind:       kind,
		rate:       rate,
		maxOutputs: maxOutputs,
		events:     event.NewChannel(),
		origin:     clock.Time(),
	}
	clock.On(TopicSecond, s.run)

	return s, nil
}

// ID returns the source's registry id.
func (s *Source) ID() string { return s.id }

// Kind returns the material the source produces.
func (s *Source) Kind() Material { return s.kind }

// Rate returns the production rate.
func (s *Source) Rate() Rate { return s.rate }

// OnMaterialReady subscribes h to the source's readiness events.
func (s *Source) OnMaterialReady(h event.Handler) {
	s.events.Subscribe(TopicMaterialReady, h)
}

// ConnectOutput makes belt pull from the source. Returns false once
// maxOutputs belts are connected.
func (s *Source) ConnectOutput(belt *Belt) bool {
	if len(s.outputs) >= s.maxOutputs {
		return false
	}
	Connect(s, belt)
	s.outputs = append(s.outputs, belt.ID())
	return true
}

// Outputs returns the ids of connected output belts.
func (s *Source) Outputs() []string {
	return append([]string(nil), s.outputs...)
}

// Supply hands out one unit produced this tick. Implements Supplier.
func (s *Source) Supply() (Material, bool) {
	if len(s.pending) == 0 {
		return Material{}, false
	}
	m := s.pending[0]
	s.pending = s.pending[1:]
	return m, true
}

// Pending returns the number of unclaimed units produced this tick.
func (s *Source) Pending() int {
	return len(s.pending)
}

// LastEmit returns the tick of the most recent production, or false
// before the first.
func (s *Source) LastEmit() (int64, bool) {
	return s.lastEmit, s.started
}

// Status returns the source's production counters.
func (s *Source) Status() SourceStatus {
	return SourceStatus{
		ID:            s.id,
		Kind:          s.kind.Kind,
		Rate:          s.rate.String(),
		LastProduced:  s.lastProduced,
		TotalProduced: s.emitted,
		Pending:       len(s.pending),
	}
}

// run is the source's Second handler.
func (s *Source) run(...any) {
	now := s.clock.Time()
	s.pending = s.pending[:0]

	due := s.rate.Units(now - s.origin)
	units := due - s.emitted
	if units <= 0 && s.started {
		s.lastProduced = 0
		return
	}

	s.started = true
	s.lastEmit = now
	s.emitted = due
	s.lastProduced = int(units)
	if units <= 0 {
		return
	}

	slog.Debug("producing", "source", s.id, "kind", s.kind.Kind, "units", units, "tick", now)
	for i := int64(0); i < units; i++ {
		s.pending = append(s.pending, s.kind.Clone())
		s.events.Publish(TopicMaterialReady, s.id)
	}
}
