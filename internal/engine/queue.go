package engine

// TimedItem is a material in transit, tagged with the tick at which it may
// leave the belt that holds it.
type TimedItem struct {
	Payload     Material
	ReleaseTime int64
}

// Ready reports whether the item may be released at tick now.
func (it TimedItem) Ready(now int64) bool {
	return it.ReleaseTime <= now
}

// TransportQueue is an unbounded FIFO of in-transit items.
//
// Capacity is not enforced here; the owning Belt checks it before every
// Enqueue. Items arrive in non-decreasing release order because every
// release time is "current tick + fixed delay".
type TransportQueue struct {
	items []TimedItem
}

// maxQueuePrealloc bounds the up-front allocation; longer belts grow on
// Enqueue.
const maxQueuePrealloc = 64

// NewTransportQueue creates an empty queue sized for capacity items.
func NewTransportQueue(capacity int) *TransportQueue {
	n := min(max(capacity, 0), maxQueuePrealloc)
	return &TransportQueue{items: make([]TimedItem, 0, n)}
}

// Enqueue appends an item at the tail.
func (q *TransportQueue) Enqueue(it TimedItem) {
	q.items = append(q.items, it)
}

// Dequeue removes and returns the head. Returns false if the queue is empty.
func (q *TransportQueue) Dequeue() (TimedItem, bool) {
	if len(q.items) == 0 {
		return TimedItem{}, false
	}

	it := q.items[0]
	q.items[0] = TimedItem{}

	// Reset to the start of the backing array when drained so a belt that
	// cycles forever does not keep reslicing toward a reallocation.
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return it, true
}

// PeekFront returns the head without removing it.
func (q *TransportQueue) PeekFront() (TimedItem, bool) {
	if len(q.items) == 0 {
		return TimedItem{}, false
	}
	return q.items[0], true
}

// PeekBack returns the tail without removing it.
func (q *TransportQueue) PeekBack() (TimedItem, bool) {
	if len(q.items) == 0 {
		return TimedItem{}, false
	}
	return q.items[len(q.items)-1], true
}

// Len returns the number of queued items.
func (q *TransportQueue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queued items, head first.
func (q *TransportQueue) Items() []TimedItem {
	out := make([]TimedItem, len(q.items))
	copy(out, q.items)
	return out
}
