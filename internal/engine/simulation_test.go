package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLink(t *testing.T, s *Simulation, links ...[2]string) {
	t.Helper()
	for _, l := range links {
		require.NoError(t, s.Link(l[0], l[1]), "link %s -> %s", l[0], l[1])
	}
}

func collectDeliveries(s *Simulation) *[]Delivery {
	var out []Delivery
	s.OnDelivered(func(args ...any) { out = append(out, args[0].(Delivery)) })
	return &out
}

// Source (1/tick) -> belt(10) -> belt(1) -> sink.
func TestSimulation_SingleLine(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("1"), 1)
	require.NoError(t, err)
	feed, err := s.AddBelt("feed", 10)
	require.NoError(t, err)
	out, err := s.AddBelt("out", 1)
	require.NoError(t, err)
	yard, err := s.AddSink("yard")
	require.NoError(t, err)
	mustLink(t, s, [2]string{"coal", "feed"}, [2]string{"feed", "out"}, [2]string{"out", "yard"})

	s.Start()
	require.Equal(t, 10, s.Step(10))
	assert.Equal(t, 10, feed.Len())
	assert.Equal(t, 0, out.Len())

	require.Equal(t, 1, s.Step(1))
	assert.Equal(t, 1, out.Len(), "exactly one unit reaches the output belt after 11 ticks")
	assert.Equal(t, 0, yard.Delivered())

	require.Equal(t, 1, s.Step(1))
	assert.Equal(t, 1, yard.Delivered())
}

// Source (0.2/tick) -> [stage1: belt(10)] -> belt(1) -> [stage2: belt(10)] -> belt(1) -> sink.
func TestSimulation_ChainedBuildings(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("0.2"), 1)
	require.NoError(t, err)
	_, err = s.AddBuilding("stage1", 1, 1, []int{10})
	require.NoError(t, err)
	_, err = s.AddBelt("out1", 1)
	require.NoError(t, err)
	_, err = s.AddBuilding("stage2", 1, 1, []int{10})
	require.NoError(t, err)
	_, err = s.AddBelt("out2", 1)
	require.NoError(t, err)
	yard, err := s.AddSink("yard")
	require.NoError(t, err)
	mustLink(t, s,
		[2]string{"coal", "stage1"},
		[2]string{"stage1", "out1"},
		[2]string{"out1", "stage2"},
		[2]string{"stage2", "out2"},
		[2]string{"out2", "yard"},
	)
	deliveries := collectDeliveries(s)

	s.Start()
	s.Step(50)
	assert.Equal(t, 5, yard.Delivered(), "units produced by tick 28 have arrived by tick 50")

	// Units produced in the first 50 ticks drain after 22 more.
	s.Step(22)
	require.Len(t, *deliveries, 10)
	assert.Equal(t, 10, yard.Delivered())

	// Produced every 5 ticks; each spends 10+1+10+1 ticks in transit.
	for i, d := range *deliveries {
		producedAt := int64(5 * (i + 1))
		assert.Equal(t, producedAt+22, d.Tick, "delivery %d", i)
		assert.Equal(t, "coal", d.Kind)
		assert.Equal(t, "yard", d.Sink)
	}
}

func TestSimulation_BeltToBeltInvariants(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("ore", "ore", MustRate("3"), 1)
	require.NoError(t, err)
	_, err = s.AddBelt("a", 4)
	require.NoError(t, err)
	_, err = s.AddBelt("b", 2)
	require.NoError(t, err)
	mustLink(t, s, [2]string{"ore", "a"}, [2]string{"a", "b"})

	// Nothing drains b: both belts fill and stay full.
	s.Start()
	for i := 0; i < 50; i++ {
		s.Step(1)
		snap := s.Snapshot()
		for _, b := range snap.Belts {
			assert.LessOrEqual(t, b.Occupancy, b.Capacity, "belt %s at tick %d", b.ID, snap.Tick)
		}
	}

	snap := s.Snapshot()
	a, _ := snap.Belt("a")
	b, _ := snap.Belt("b")
	assert.Equal(t, 4, a.Occupancy)
	assert.Equal(t, 2, b.Occupancy)
	assert.Greater(t, a.Refused, uint64(0))
}

func TestSimulation_StoppedClockDoesNotStep(t *testing.T) {
	s := NewSimulation()
	assert.Equal(t, 0, s.Step(5))
	assert.Equal(t, int64(0), s.Clock().Time())

	s.Start()
	assert.Equal(t, 5, s.Step(5))
	s.Stop()
	assert.Equal(t, 0, s.Step(5))
	assert.Equal(t, int64(5), s.Clock().Time())
}

func TestSimulation_DuplicateAndInvalidIDs(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddBelt("feed", 1)
	require.NoError(t, err)

	_, err = s.AddBelt("feed", 2)
	assert.Equal(t, ErrCodeDuplicateID, ConfigErrorCodeOf(err))

	_, err = s.AddSink("")
	assert.Equal(t, ErrCodeInvalidID, ConfigErrorCodeOf(err))

	_, err = s.AddBelt("a/0", 1)
	assert.Equal(t, ErrCodeInvalidID, ConfigErrorCodeOf(err), "'/' is reserved for internal belts")
	_, _, ok := s.Lookup("a/0")
	assert.False(t, ok)
	_, err = s.AddBuilding("a", 1, 1, []int{2})
	require.NoError(t, err)

	_, err = s.AddBuilding("plant", 1, 1, []int{3, 0})
	assert.Equal(t, ErrCodeInvalidCapacity, ConfigErrorCodeOf(err))
	_, _, ok = s.Lookup("plant")
	assert.False(t, ok, "failed building must not be registered")
	_, _, ok = s.Lookup("plant/0")
	assert.False(t, ok)

	_, err = s.AddBuilding("plant", 1, 1, nil)
	assert.Equal(t, ErrCodeInvalidPorts, ConfigErrorCodeOf(err))
}

func TestSimulation_LinkErrors(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("1"), 1)
	require.NoError(t, err)
	_, err = s.AddBelt("a", 1)
	require.NoError(t, err)
	_, err = s.AddBelt("b", 1)
	require.NoError(t, err)
	_, err = s.AddBuilding("plant", 1, 1, []int{2})
	require.NoError(t, err)
	_, err = s.AddSink("yard")
	require.NoError(t, err)

	assert.Equal(t, ErrCodeUnknownComponent, ConfigErrorCodeOf(s.Link("nope", "a")))
	assert.Equal(t, ErrCodeUnknownComponent, ConfigErrorCodeOf(s.Link("a", "nope")))
	assert.Equal(t, ErrCodeInvalidLink, ConfigErrorCodeOf(s.Link("yard", "a")))
	assert.Equal(t, ErrCodeInvalidLink, ConfigErrorCodeOf(s.Link("a", "coal")))
	assert.Equal(t, ErrCodeInvalidLink, ConfigErrorCodeOf(s.Link("plant", "yard")))

	require.NoError(t, s.Link("coal", "a"))
	assert.Equal(t, ErrCodePortsExhausted, ConfigErrorCodeOf(s.Link("coal", "b")))

	require.NoError(t, s.Link("a", "plant"))
	assert.Equal(t, ErrCodePortsExhausted, ConfigErrorCodeOf(s.Link("b", "plant")))
}

func TestSimulation_TypedLookups(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddBuilding("plant", 1, 1, []int{2, 3})
	require.NoError(t, err)

	_, ok := s.Building("plant")
	assert.True(t, ok)
	b, ok := s.Belt("plant/1")
	require.True(t, ok)
	assert.Equal(t, 3, b.Capacity())

	_, ok = s.Belt("plant")
	assert.False(t, ok)
	_, ok = s.Source("plant")
	assert.False(t, ok)
	_, ok = s.Sink("plant")
	assert.False(t, ok)

	_, kind, ok := s.Lookup("plant/0")
	require.True(t, ok)
	assert.Equal(t, KindBelt, kind)
	assert.Equal(t, []string{"plant", "plant/0", "plant/1"}, s.IDs())
}

func TestSimulation_RunFast(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("1"), 0)
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), 0, 25))
	assert.Equal(t, int64(25), s.Clock().Time())
	assert.False(t, s.Clock().Running(), "run leaves the clock stopped")
}

func TestSimulation_RunInterval(t *testing.T) {
	s := NewSimulation()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, time.Millisecond, 3))
	assert.Equal(t, int64(3), s.Clock().Time())
}

func TestSimulation_RunCancelled(t *testing.T) {
	s := NewSimulation()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulation_Snapshot(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("1"), 1)
	require.NoError(t, err)
	_, err = s.AddBuilding("plant", 1, 0, []int{3})
	require.NoError(t, err)
	_, err = s.AddSink("yard")
	require.NoError(t, err)
	mustLink(t, s, [2]string{"coal", "plant"})

	s.Start()
	s.Step(2)

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.Tick)
	assert.True(t, snap.Running)

	src, ok := snap.Source("coal")
	require.True(t, ok)
	assert.Equal(t, "coal", src.Kind)
	assert.Equal(t, "1", src.Rate)
	assert.Equal(t, 1, src.LastProduced)
	assert.Equal(t, int64(2), src.TotalProduced)

	bld, ok := snap.Building("plant")
	require.True(t, ok)
	assert.True(t, bld.Busy)
	assert.Equal(t, 2, bld.Held)
	assert.Equal(t, []string{"coal"}, bld.Inputs)

	belt, ok := snap.Belt("plant/0")
	require.True(t, ok)
	assert.Equal(t, 2, belt.Occupancy)

	sink, ok := snap.Sink("yard")
	require.True(t, ok)
	assert.Equal(t, 0, sink.Delivered)

	_, ok = snap.Belt("missing")
	assert.False(t, ok)
}

func TestSimulation_OnTickRunsAfterComponents(t *testing.T) {
	s := NewSimulation()
	_, err := s.AddSource("coal", "coal", MustRate("1"), 1)
	require.NoError(t, err)
	_, err = s.AddBelt("feed", 5)
	require.NoError(t, err)
	mustLink(t, s, [2]string{"coal", "feed"})

	var occupancy []int
	s.OnTick(func(...any) {
		b, _ := s.SnapshotInTick().Belt("feed")
		occupancy = append(occupancy, b.Occupancy)
	})

	s.Start()
	s.Step(3)
	assert.Equal(t, []int{1, 2, 3}, occupancy)
}
