package engine

import (
	"log/slog"

	"github.com/roach88/forgery/internal/event"
)

// TopicDelivered is published by a Sink with a Delivery argument each time
// it takes a unit.
const TopicDelivered event.Topic = "sink-delivered"

// Delivery records one unit leaving the factory.
type Delivery struct {
	Sink string `json:"sink"`
	Kind string `json:"kind"`
	Tick int64  `json:"tick"`
}

// Sink is a terminal consumer: it takes every unit its inputs announce.
type Sink struct {
	id     string
	clock  *Clock
	events *event.Channel

	delivered int
	byKind    map[string]int
	inputs    []string
}

// NewSink creates an unconnected sink.
func NewSink(clock *Clock, id string) *Sink {
	return &Sink{
		id:     id,
		clock:  clock,
		events: event.NewChannel(),
		byKind: make(map[string]int),
	}
}

// ID returns the sink's registry id.
func (s *Sink) ID() string { return s.id }

// ConnectInput makes the sink claim a unit from p whenever p is ready.
func (s *Sink) ConnectInput(p Producer) {
	p.OnMaterialReady(func(...any) {
		s.take(p)
	})
	s.inputs = append(s.inputs, p.ID())
}

// OnDelivered subscribes h to deliveries. h receives a Delivery.
func (s *Sink) OnDelivered(h event.Handler) {
	s.events.Subscribe(TopicDelivered, h)
}

// Delivered returns the total number of units taken.
func (s *Sink) Delivered() int { return s.delivered }

// Kinds returns delivered counts per material kind.
func (s *Sink) Kinds() map[string]int {
	out := make(map[string]int, len(s.byKind))
	for k, v := range s.byKind {
		out[k] = v
	}
	return out
}

// Status returns the sink's delivery counters.
func (s *Sink) Status() SinkStatus {
	return SinkStatus{ID: s.id, Delivered: s.delivered, Kinds: s.Kinds()}
}

func (s *Sink) take(p Supplier) {
	m, ok := p.Supply()
	if !ok {
		return
	}

	s.delivered++
	s.byKind[m.Kind]++

	d := Delivery{Sink: s.id, Kind: m.Kind, Tick: s.clock.Time()}
	slog.Debug("delivered", "sink", s.id, "kind", m.Kind, "tick", d.Tick, "total", s.delivered)
	s.events.Publish(TopicDelivered, d)
}
