package observer

import (
	"sync"
	"sync/atomic"
)

// Hub fans encoded frames out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the frame.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan []byte
	latest []byte

	nextID  atomic.Uint64
	dropped atomic.Uint64
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan []byte)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// channel is closed by cancel.
func (h *Hub) Subscribe(buffer int) (frames <-chan []byte, cancel func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan []byte, buffer)
	id := h.nextID.Add(1)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends frame to every subscriber and keeps it as the latest frame.
func (h *Hub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = frame
	for _, ch := range h.subs {
		select {
		case ch <- frame:
		default:
			h.dropped.Add(1)
		}
	}
}

// Latest returns the most recently published frame, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many frames were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
