package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newRunningClock returns a started clock at time 0.
func newRunningClock() *Clock {
	c := NewClock()
	c.Start()
	return c
}

// advance ticks c n times.
func advance(t *testing.T, c *Clock, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, c.Tick(), "clock should be running")
	}
}

func mustBelt(t *testing.T, c *Clock, id string, capacity int) *Belt {
	t.Helper()
	b, err := NewBelt(c, id, capacity)
	require.NoError(t, err)
	return b
}

func mustSource(t *testing.T, c *Clock, id, kind, rate string, outputs int) *Source {
	t.Helper()
	s, err := NewSource(c, id, NewMaterial(kind), MustRate(rate), outputs)
	require.NoError(t, err)
	return s
}

// stubSupplier hands out material of one kind until empty is set.
type stubSupplier struct {
	kind  string
	empty bool
	calls int
}

func (s *stubSupplier) Supply() (Material, bool) {
	s.calls++
	if s.empty {
		return Material{}, false
	}
	return NewMaterial(s.kind), true
}
