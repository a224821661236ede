package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/forgery/internal/engine"
)

// DeliveryLog collects sink deliveries in the order they happen.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeliveryLog struct {
	mu         sync.Mutex
	deliveries []engine.Delivery
}

// NewDeliveryLog creates an empty log.
func NewDeliveryLog() *DeliveryLog {
	return &DeliveryLog{}
}

// Handler returns an event handler to pass to Simulation.OnDelivered or
// Sink.OnDelivered. Arguments that are not a Delivery are ignored.
func (l *DeliveryLog) Handler() func(args ...any) {
	return func(args ...any) {
		if len(args) == 0 {
			return
		}
		d, ok := args[0].(engine.Delivery)
		if !ok {
			return
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		l.deliveries = append(l.deliveries, d)
	}
}

// Deliveries returns a copy of the recorded deliveries.
func (l *DeliveryLog) Deliveries() []engine.Delivery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]engine.Delivery(nil), l.deliveries...)
}

// Ticks returns the tick of every delivery.
func (l *DeliveryLog) Ticks() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ticks := make([]int64, len(l.deliveries))
	for i, d := range l.deliveries {
		ticks[i] = d.Tick
	}
	return ticks
}

// Lines renders one "tick=<n> sink=<id> kind=<kind>" line per delivery.
func (l *DeliveryLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := make([]string, len(l.deliveries))
	for i, d := range l.deliveries {
		lines[i] = FormatDelivery(d.Tick, d.Sink, d.Kind)
	}
	return lines
}

// Reset empties the log.
func (l *DeliveryLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliveries = nil
}

// FormatDelivery renders a delivery as a single trace line.
func FormatDelivery(tick int64, sink, kind string) string {
	return fmt.Sprintf("tick=%d sink=%s kind=%s", tick, sink, kind)
}
