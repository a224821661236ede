package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	topicA Topic = "a"
	topicB Topic = "b"
)

func TestChannel_PublishRegistrationOrder(t *testing.T) {
	c := NewChannel()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		c.Subscribe(topicA, func(...any) { order = append(order, i) })
	}

	c.Publish(topicA)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestChannel_PublishPassesArgs(t *testing.T) {
	c := NewChannel()

	var got []any
	c.Subscribe(topicA, func(args ...any) { got = args })

	c.Publish(topicA, "coal", 42)
	require.Len(t, got, 2)
	assert.Equal(t, "coal", got[0])
	assert.Equal(t, 42, got[1])
}

func TestChannel_PublishWithoutSubscribers(t *testing.T) {
	c := NewChannel()
	assert.NotPanics(t, func() { c.Publish(topicA, 1) })

	var zero Channel
	assert.NotPanics(t, func() { zero.Publish(topicA) })
}

func TestChannel_TopicsAreIsolated(t *testing.T) {
	c := NewChannel()

	calls := 0
	c.Subscribe(topicA, func(...any) { calls++ })

	c.Publish(topicB)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, c.Len(topicA))
	assert.Equal(t, 0, c.Len(topicB))
}

func TestChannel_SubscribeDuringPublish(t *testing.T) {
	c := NewChannel()

	late := 0
	c.Subscribe(topicA, func(...any) {
		c.Subscribe(topicA, func(...any) { late++ })
	})

	c.Publish(topicA)
	assert.Equal(t, 0, late, "handler added mid-dispatch must not run in the same publish")
	assert.Equal(t, 2, c.Len(topicA))

	c.Publish(topicA)
	assert.Equal(t, 1, late)
}

func TestChannel_ReentrantPublish(t *testing.T) {
	c := NewChannel()

	var order []string
	c.Subscribe(topicA, func(...any) {
		order = append(order, "a")
		c.Publish(topicB)
	})
	c.Subscribe(topicA, func(...any) { order = append(order, "a2") })
	c.Subscribe(topicB, func(...any) { order = append(order, "b") })

	c.Publish(topicA)
	assert.Equal(t, []string{"a", "b", "a2"}, order)
}

func TestChannel_NilHandlerIgnored(t *testing.T) {
	c := NewChannel()
	c.Subscribe(topicA, nil)
	assert.Equal(t, 0, c.Len(topicA))
}

func TestChannel_HandlerPanicPropagates(t *testing.T) {
	c := NewChannel()

	after := false
	c.Subscribe(topicA, func(...any) { panic("boom") })
	c.Subscribe(topicA, func(...any) { after = true })

	assert.PanicsWithValue(t, "boom", func() { c.Publish(topicA) })
	assert.False(t, after)
}
