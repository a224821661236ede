package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/forgery/internal/event"
)

// Clock topics. Second fires on every tick; Minute and Hour fire after it
// when the new time is a multiple of 60 or 3600.
const (
	TopicSecond event.Topic = "clock-second"
	TopicMinute event.Topic = "clock-minute"
	TopicHour   event.Topic = "clock-hour"
)

// Clock is the global time source of a simulation.
//
// Time is an integer tick count starting at 0. Each Tick while running
// advances it by exactly one and republishes the coarser Minute and Hour
// ticks on their multiples.
//
// Time and the running gate are atomics so status readers on other
// goroutines may call Time and Running. Tick itself must only be called by
// the single tick driver; handlers run synchronously inside it.
type Clock struct {
	time    atomic.Int64
	running atomic.Bool
	events  *event.Channel
}

// NewClock creates a stopped clock at time 0.
func NewClock() *Clock {
	return &Clock{events: event.NewChannel()}
}

// NewClockAt creates a stopped clock at a specific time.
func NewClockAt(start int64) *Clock {
	c := NewClock()
	c.time.Store(start)
	return c
}

// On registers a handler for one of the clock topics.
func (c *Clock) On(topic event.Topic, h event.Handler) {
	c.events.Subscribe(topic, h)
}

// Time returns the current tick.
func (c *Clock) Time() int64 {
	return c.time.Load()
}

// Running reports whether ticks are currently delivered.
func (c *Clock) Running() bool {
	return c.running.Load()
}

// Start opens the tick gate. Starting a running clock is a no-op.
func (c *Clock) Start() {
	if c.running.CompareAndSwap(false, true) {
		slog.Debug("clock started", "tick", c.Time())
	}
}

// Stop closes the tick gate. Accumulated state is kept; a later Start
// resumes from the same time.
func (c *Clock) Stop() {
	if c.running.CompareAndSwap(true, false) {
		slog.Debug("clock stopped", "tick", c.Time())
	}
}

// Tick advances time by one and publishes the tick topics in order
// Second, Minute, Hour. It returns false, without side effects, when the
// clock is stopped.
func (c *Clock) Tick() bool {
	if !c.Running() {
		return false
	}

	now := c.time.Add(1)
	c.events.Publish(TopicSecond, now)
	if now%60 == 0 {
		c.events.Publish(TopicMinute, now)
	}
	if now%3600 == 0 {
		c.events.Publish(TopicHour, now)
	}

	slog.Debug("tick", "time", now)
	return true
}

// Drive calls step once per interval until ctx is cancelled or step
// returns false. It is the wall-clock time-step signal of a live run.
func Drive(ctx context.Context, interval time.Duration, step func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !step() {
				return nil
			}
		}
	}
}
