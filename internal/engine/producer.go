package engine

import "github.com/roach88/forgery/internal/event"

// TopicMaterialReady is published by a producer when it has material a
// downstream consumer may claim this tick.
const TopicMaterialReady event.Topic = "material-ready"

// Supplier hands out one material at a time.
type Supplier interface {
	// Supply removes and returns one material, or false if none is
	// available this tick.
	Supply() (Material, bool)
}

// Producer is a Supplier that announces readiness. Belt and Source
// implement it.
type Producer interface {
	Supplier

	// ID returns the producer's registry id.
	ID() string

	// OnMaterialReady subscribes h to the producer's readiness events.
	OnMaterialReady(h event.Handler)
}

// Connect makes to pull from from whenever from announces readiness.
//
// The subscription captures only the consumer and the supplier, never the
// component that asked for the link.
func Connect(from Producer, to *Belt) {
	from.OnMaterialReady(func(...any) {
		to.TryConsume(from)
	})
}
