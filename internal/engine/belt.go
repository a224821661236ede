package engine

import (
	"log/slog"

	"github.com/roach88/forgery/internal/event"
)

// Belt is a bounded conveyor.
//
// Capacity is both the maximum number of items held and the number of ticks
// each item spends in transit: an item accepted at tick T is released at
// T + capacity. A belt accepts at most one item per tick and announces
// TopicMaterialReady on every Second tick at which its head item is due.
//
// Only the belt's own TryConsume and Supply mutate its contents.
type Belt struct {
	id       string
	clock    *Clock
	capacity int
	contents *TransportQueue
	events   *event.Channel

	lastConsumed int64
	consumed     bool

	accepted uint64
	supplied uint64
	refused  uint64
}

// NewBelt creates a belt and subscribes it to the clock's Second tick.
func NewBelt(clock *Clock, id string, capacity int) (*Belt, error) {
	if capacity <= 0 {
		return nil, newConfigError(ErrCodeInvalidCapacity, id, "belt capacity must be > 0, got %d", capacity)
	}

	b := &Belt{
		id:       id,
		clock:    clock,
		capacity: capacity,
		contents: NewTransportQueue(capacity),
		events:   event.NewChannel(),
	}
	clock.On(TopicSecond, b.run)

	return b, nil
}

// ID returns the belt's registry id.
func (b *Belt) ID() string { return b.id }

// Capacity returns the item bound, which is also the transit delay.
func (b *Belt) Capacity() int { return b.capacity }

// TransitDelay returns the number of ticks an item stays on the belt.
func (b *Belt) TransitDelay() int64 { return int64(b.capacity) }

// Len returns the number of items on the belt.
func (b *Belt) Len() int { return b.contents.Len() }

// OnMaterialReady subscribes h to the belt's readiness events.
func (b *Belt) OnMaterialReady(h event.Handler) {
	b.events.Subscribe(TopicMaterialReady, h)
}

// IsFull reports whether the belt holds capacity items.
func (b *Belt) IsFull() bool {
	return b.contents.Len() >= b.capacity
}

// CanAcceptThisTick reports whether the belt has not yet accepted an item
// at tick now. An item accepted at now would be the tail with release time
// now + capacity.
func (b *Belt) CanAcceptThisTick(now int64) bool {
	back, ok := b.contents.PeekBack()
	if !ok {
		return true
	}
	return back.ReleaseTime != now+int64(b.capacity)
}

// TryConsume pulls one material from s onto the belt.
//
// It returns false without calling s when the belt is full or has already
// accepted an item this tick, and false when s has nothing to give.
func (b *Belt) TryConsume(s Supplier) bool {
	now := b.clock.Time()
	if b.IsFull() || !b.CanAcceptThisTick(now) {
		b.refused++
		return false
	}

	m, ok := s.Supply()
	if !ok {
		return false
	}

	b.contents.Enqueue(TimedItem{Payload: m, ReleaseTime: now + int64(b.capacity)})
	b.lastConsumed = now
	b.consumed = true
	b.accepted++

	slog.Debug("belt accepted material", "belt", b.id, "kind", m.Kind, "tick", now, "occupancy", b.contents.Len())
	return true
}

// IsReady reports whether the head item may leave the belt at tick now.
func (b *Belt) IsReady(now int64) bool {
	front, ok := b.contents.PeekFront()
	return ok && front.Ready(now)
}

// Supply releases the head item if it is due. Implements Supplier.
func (b *Belt) Supply() (Material, bool) {
	if !b.IsReady(b.clock.Time()) {
		return Material{}, false
	}

	it, _ := b.contents.Dequeue()
	b.supplied++
	return it.Payload, true
}

// LastConsumed returns the tick of the most recent accept, or false if the
// belt has never accepted an item.
func (b *Belt) LastConsumed() (int64, bool) {
	return b.lastConsumed, b.consumed
}

// MaxSlotView is the longest belt whose Status carries a per-slot view.
const MaxSlotView = 4096

// Status returns the belt's occupancy view at the current tick. Slots is
// nil for belts longer than MaxSlotView.
func (b *Belt) Status() BeltStatus {
	now := b.clock.Time()
	var slots []bool
	if b.capacity <= MaxSlotView {
		slots = make([]bool, b.capacity)
		for _, it := range b.contents.Items() {
			slots[b.slotOf(it, now)] = true
		}
	}

	return BeltStatus{
		ID:        b.id,
		Occupancy: b.contents.Len(),
		Capacity:  b.capacity,
		Slots:     slots,
		Ready:     b.IsReady(now),
		Accepted:  b.accepted,
		Supplied:  b.supplied,
		Refused:   b.refused,
	}
}

// slotOf maps an item to its position along the belt: 0 is the intake end,
// capacity-1 the output end where due items wait.
func (b *Belt) slotOf(it TimedItem, now int64) int {
	pos := b.capacity - int(it.ReleaseTime-now)
	if pos < 0 {
		return 0
	}
	if pos > b.capacity-1 {
		return b.capacity - 1
	}
	return pos
}

// run is the belt's Second handler.
func (b *Belt) run(...any) {
	if b.IsReady(b.clock.Time()) {
		b.events.Publish(TopicMaterialReady, b.id)
	}
}
