package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilding_Invalid(t *testing.T) {
	_, err := NewBuilding("empty", 1, 1, nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPorts, ConfigErrorCodeOf(err))

	c := NewClock()
	_, err = NewBuilding("neg", -1, 1, []*Belt{mustBelt(t, c, "neg/0", 1)})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPorts, ConfigErrorCodeOf(err))
}

func TestBuilding_ConnectBounds(t *testing.T) {
	c := newRunningClock()
	bld, err := NewBuilding("smelter", 1, 1, []*Belt{mustBelt(t, c, "smelter/0", 3)})
	require.NoError(t, err)

	in1 := mustBelt(t, c, "in1", 1)
	in2 := mustBelt(t, c, "in2", 1)
	out1 := mustBelt(t, c, "out1", 1)
	out2 := mustBelt(t, c, "out2", 1)

	assert.True(t, bld.ConnectInput(in1))
	assert.False(t, bld.ConnectInput(in2))
	assert.True(t, bld.ConnectOutput(out1))
	assert.False(t, bld.ConnectOutput(out2))

	assert.Equal(t, []string{"in1"}, bld.Inputs())
	assert.Equal(t, []string{"out1"}, bld.Outputs())
}

func TestBuilding_ForwardsAcrossBoundary(t *testing.T) {
	c := newRunningClock()
	in := mustBelt(t, c, "in", 1)
	internal := mustBelt(t, c, "smelter/0", 2)
	out := mustBelt(t, c, "out", 1)

	bld, err := NewBuilding("smelter", 1, 1, []*Belt{internal})
	require.NoError(t, err)
	require.True(t, bld.ConnectInput(in))
	require.True(t, bld.ConnectOutput(out))

	assert.False(t, bld.Status(), "idle before any material")

	advance(t, c, 1)
	require.True(t, in.TryConsume(&stubSupplier{kind: "ore"}))

	// in releases at 2 into the internal belt.
	advance(t, c, 1)
	assert.Equal(t, 0, in.Len())
	assert.Equal(t, 1, internal.Len())
	assert.True(t, bld.Status(), "busy while holding material")

	// internal releases at 4 onto out.
	advance(t, c, 1)
	assert.Equal(t, 1, internal.Len())
	advance(t, c, 1)
	assert.Equal(t, 0, internal.Len())
	assert.Equal(t, 1, out.Len())
	assert.False(t, bld.Status())

	st := bld.Describe()
	assert.Equal(t, "smelter", st.ID)
	assert.False(t, st.Busy)
	assert.Equal(t, 0, st.Held)
}

func TestBuilding_InputFeedsEveryInternalBelt(t *testing.T) {
	c := newRunningClock()
	src := mustSource(t, c, "coal", "coal", "1", 0)
	a := mustBelt(t, c, "plant/0", 3)
	b := mustBelt(t, c, "plant/1", 3)

	bld, err := NewBuilding("plant", 1, 0, []*Belt{a, b})
	require.NoError(t, err)
	require.True(t, bld.ConnectInput(src))
	assert.Len(t, bld.InternalBelts(), 2)

	advance(t, c, 1)
	assert.Equal(t, 1, a.Len(), "first internal belt claims the single unit")
	assert.Equal(t, 0, b.Len())

	// Once the first belt is full the second takes over.
	advance(t, c, 2)
	assert.Equal(t, 3, a.Len())
	advance(t, c, 1)
	assert.Equal(t, 1, b.Len())
}
