package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/forgery/internal/event"
)

// ComponentKind names the role a registered component plays.
type ComponentKind string

const (
	KindSource   ComponentKind = "source"
	KindBelt     ComponentKind = "belt"
	KindBuilding ComponentKind = "building"
	KindSink     ComponentKind = "sink"
)

// Component is anything registered in a Simulation.
type Component interface {
	ID() string
}

// Simulation owns a Clock and the registry of components wired to it.
//
// Components are addressed by id; links are recorded as ids, so no
// component holds a reference to the object that wired it. Tick delivery
// and Snapshot serialise on one mutex: readers on other goroutines always
// see the state between two ticks.
//
// INVARIANTS:
//   - Components subscribe to the clock in the order they are added, which
//     fixes handler order within every tick.
//   - Internal belts of a building are registered as "<building>/<n>".
type Simulation struct {
	mu    sync.Mutex
	clock *Clock

	order      []string
	kinds      map[string]ComponentKind
	components map[string]Component

	sources   []*Source
	belts     []*Belt
	buildings []*Building
	sinks     []*Sink
}

// NewSimulation creates an empty simulation with a stopped clock at 0.
func NewSimulation() *Simulation {
	return NewSimulationWithClock(NewClock())
}

// NewSimulationWithClock creates an empty simulation around clock.
func NewSimulationWithClock(clock *Clock) *Simulation {
	return &Simulation{
		clock:      clock,
		kinds:      make(map[string]ComponentKind),
		components: make(map[string]Component),
	}
}

// Clock returns the simulation clock.
func (s *Simulation) Clock() *Clock { return s.clock }

// AddSource registers a source producing kind at rate.
func (s *Simulation) AddSource(id, kind string, rate Rate, maxOutputs int) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(id); err != nil {
		return nil, err
	}
	src, err := NewSource(s.clock, id, NewMaterial(kind), rate, maxOutputs)
	if err != nil {
		return nil, err
	}
	s.register(id, KindSource, src)
	s.sources = append(s.sources, src)
	return src, nil
}

// AddBelt registers a belt of the given capacity.
func (s *Simulation) AddBelt(id string, capacity int) (*Belt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(id); err != nil {
		return nil, err
	}
	b, err := NewBelt(s.clock, id, capacity)
	if err != nil {
		return nil, err
	}
	s.register(id, KindBelt, b)
	s.belts = append(s.belts, b)
	return b, nil
}

// AddBuilding registers a building with one internal belt per entry in
// capacities.
func (s *Simulation) AddBuilding(id string, maxInputs, maxOutputs int, capacities []int) (*Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(id); err != nil {
		return nil, err
	}
	if len(capacities) == 0 {
		return nil, newConfigError(ErrCodeInvalidPorts, id, "building needs at least one internal belt")
	}

	// Validate everything before subscribing any internal belt to the clock.
	for n, c := range capacities {
		belt := InternalBeltID(id, n)
		if c <= 0 {
			return nil, newConfigError(ErrCodeInvalidCapacity, belt, "belt capacity must be > 0, got %d", c)
		}
	}
	if maxInputs < 0 || maxOutputs < 0 {
		return nil, newConfigError(ErrCodeInvalidPorts, id, "building inputs/outputs must be >= 0, got %d/%d", maxInputs, maxOutputs)
	}

	internal := make([]*Belt, 0, len(capacities))
	for n, c := range capacities {
		b, err := NewBelt(s.clock, InternalBeltID(id, n), c)
		if err != nil {
			return nil, err
		}
		internal = append(internal, b)
	}

	bld, err := NewBuilding(id, maxInputs, maxOutputs, internal)
	if err != nil {
		return nil, err
	}
	s.register(id, KindBuilding, bld)
	s.buildings = append(s.buildings, bld)
	for _, b := range internal {
		s.register(b.ID(), KindBelt, b)
		s.belts = append(s.belts, b)
	}
	return bld, nil
}

// AddSink registers a terminal consumer.
func (s *Simulation) AddSink(id string) (*Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkID(id); err != nil {
		return nil, err
	}
	sk := NewSink(s.clock, id)
	s.register(id, KindSink, sk)
	s.sinks = append(s.sinks, sk)
	return sk, nil
}

// Lookup returns the component registered under id.
func (s *Simulation) Lookup(id string) (Component, ComponentKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.components[id]
	return c, s.kinds[id], ok
}

// Source returns the source registered under id.
func (s *Simulation) Source(id string) (*Source, bool) {
	c, _, ok := s.Lookup(id)
	src, isSource := c.(*Source)
	return src, ok && isSource
}

// Belt returns the belt registered under id, including internal belts.
func (s *Simulation) Belt(id string) (*Belt, bool) {
	c, _, ok := s.Lookup(id)
	b, isBelt := c.(*Belt)
	return b, ok && isBelt
}

// Building returns the building registered under id.
func (s *Simulation) Building(id string) (*Building, bool) {
	c, _, ok := s.Lookup(id)
	b, isBuilding := c.(*Building)
	return b, ok && isBuilding
}

// Sink returns the sink registered under id.
func (s *Simulation) Sink(id string) (*Sink, bool) {
	c, _, ok := s.Lookup(id)
	sk, isSink := c.(*Sink)
	return sk, ok && isSink
}

// IDs returns registered ids in registration order.
func (s *Simulation) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Link connects from to to according to their kinds:
//
//	source   -> belt      Source.ConnectOutput
//	source   -> building  Building.ConnectInput
//	belt     -> belt      Connect
//	belt     -> building  Building.ConnectInput
//	building -> belt      Building.ConnectOutput
//	source   -> sink      Sink.ConnectInput
//	belt     -> sink      Sink.ConnectInput
//
// Connecting past a port bound returns a PORTS_EXHAUSTED ConfigError.
func (s *Simulation) Link(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.components[from]
	if !ok {
		return newConfigError(ErrCodeUnknownComponent, from, "link source %q not found", from)
	}
	dst, ok := s.components[to]
	if !ok {
		return newConfigError(ErrCodeUnknownComponent, to, "link target %q not found", to)
	}

	connected := true
	switch d := dst.(type) {
	case *Belt:
		switch p := src.(type) {
		case *Source:
			connected = p.ConnectOutput(d)
		case *Belt:
			Connect(p, d)
		case *Building:
			connected = p.ConnectOutput(d)
		default:
			return s.invalidLink(from, to)
		}
	case *Building:
		p, ok := src.(Producer)
		if !ok {
			return s.invalidLink(from, to)
		}
		connected = d.ConnectInput(p)
	case *Sink:
		p, ok := src.(Producer)
		if !ok {
			return s.invalidLink(from, to)
		}
		d.ConnectInput(p)
	default:
		return s.invalidLink(from, to)
	}

	if !connected {
		return newConfigError(ErrCodePortsExhausted, from, "cannot link %s -> %s: no free port", from, to)
	}

	slog.Debug("linked", "from", from, "to", to)
	return nil
}

// OnTick registers h on the clock's Second topic. Handlers added after the
// graph is wired run after every component has reacted to the tick.
func (s *Simulation) OnTick(h event.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.On(TopicSecond, h)
}

// OnDelivered subscribes h to every registered sink.
func (s *Simulation) OnDelivered(h event.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sk := range s.sinks {
		sk.OnDelivered(h)
	}
}

// Start opens the clock gate.
func (s *Simulation) Start() { s.clock.Start() }

// Stop closes the clock gate.
func (s *Simulation) Stop() { s.clock.Stop() }

// Step delivers up to n ticks and returns how many advanced the clock.
// A stopped clock advances none.
func (s *Simulation) Step(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	advanced := 0
	for i := 0; i < n; i++ {
		if !s.clock.Tick() {
			break
		}
		advanced++
	}
	return advanced
}

// Run starts the clock and delivers one tick per interval until ctx is
// cancelled or maxTicks ticks have been delivered (0 = unbounded). With a
// zero interval ticks are delivered back to back.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, maxTicks int64) error {
	s.Start()
	defer s.Stop()

	slog.Info("simulation running", "interval", interval, "max_ticks", maxTicks)

	var delivered int64
	if interval <= 0 {
		for maxTicks <= 0 || delivered < maxTicks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.Step(1) == 0 {
				return nil
			}
			delivered++
		}
		return nil
	}

	// A live run keeps its cadence while the gate is closed; ticks resume
	// when Start is called again.
	return Drive(ctx, interval, func() bool {
		delivered += int64(s.Step(1))
		return maxTicks <= 0 || delivered < maxTicks
	})
}

// Snapshot returns the status of every component at the current tick.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SnapshotInTick builds a snapshot from inside a tick handler, where the
// simulation lock is already held by Step.
func (s *Simulation) SnapshotInTick() Snapshot {
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tick:      s.clock.Time(),
		Running:   s.clock.Running(),
		Sources:   make([]SourceStatus, 0, len(s.sources)),
		Belts:     make([]BeltStatus, 0, len(s.belts)),
		Buildings: make([]BuildingStatus, 0, len(s.buildings)),
		Sinks:     make([]SinkStatus, 0, len(s.sinks)),
	}
	for _, src := range s.sources {
		snap.Sources = append(snap.Sources, src.Status())
	}
	for _, b := range s.belts {
		snap.Belts = append(snap.Belts, b.Status())
	}
	for _, b := range s.buildings {
		snap.Buildings = append(snap.Buildings, b.Describe())
	}
	for _, sk := range s.sinks {
		snap.Sinks = append(snap.Sinks, sk.Status())
	}
	return snap
}

func (s *Simulation) checkID(id string) error {
	if id == "" {
		return newConfigError(ErrCodeInvalidID, id, "component id must be non-empty")
	}
	if strings.Contains(id, "/") {
		return newConfigError(ErrCodeInvalidID, id, "component id %q must not contain '/'", id)
	}
	if _, exists := s.components[id]; exists {
		return newConfigError(ErrCodeDuplicateID, id, "component %q already registered", id)
	}
	return nil
}

func (s *Simulation) register(id string, kind ComponentKind, c Component) {
	s.order = append(s.order, id)
	s.kinds[id] = kind
	s.components[id] = c
}

func (s *Simulation) invalidLink(from, to string) error {
	return newConfigError(ErrCodeInvalidLink, from, "cannot link %s (%s) -> %s (%s)", from, s.kinds[from], to, s.kinds[to])
}

// String summarises the registry for logs.
func (s *Simulation) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("simulation{tick=%d sources=%d belts=%d buildings=%d sinks=%d}",
		s.clock.Time(), len(s.sources), len(s.belts), len(s.buildings), len(s.sinks))
}
