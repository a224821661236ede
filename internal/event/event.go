// Package event provides the named-topic publish/subscribe primitive every
// simulation component uses to announce state changes.
//
// Dispatch is synchronous: Publish runs each handler to completion, in
// registration order, before returning. Handlers may publish re-entrantly,
// which is how a readiness event ripples from a source through several belts
// within a single tick.
package event

// Topic names an event stream on a Channel.
type Topic string

// Handler receives the arguments passed to Publish.
//
// Handlers return nothing. A panic inside a handler propagates to the
// publisher and aborts the remainder of the dispatch.
type Handler func(args ...any)

// Channel is a per-component set of topic subscriptions.
//
// Channel is not safe for concurrent use. The simulation drives every
// channel from the single goroutine that delivers ticks.
type Channel struct {
	handlers map[Topic][]Handler
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{handlers: make(map[Topic][]Handler)}
}

// Subscribe registers h for topic. Handlers run in registration order.
func (c *Channel) Subscribe(topic Topic, h Handler) {
	if h == nil {
		return
	}
	if c.handlers == nil {
		c.handlers = make(map[Topic][]Handler)
	}
	c.handlers[topic] = append(c.handlers[topic], h)
}

// Publish invokes every handler registered for topic with args.
//
// The handler list is snapshotted before dispatch: handlers subscribed while
// the publish is in flight first run on the next Publish. Publishing a topic
// with no subscribers is a no-op.
func (c *Channel) Publish(topic Topic, args ...any) {
	registered := c.handlers[topic]
	if len(registered) == 0 {
		return
	}

	for _, h := range registered {
		h(args...)
	}
}

// Len returns the number of handlers registered for topic.
func (c *Channel) Len(topic Topic) int {
	return len(c.handlers[topic])
}
