package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/forgery/internal/engine"
	"github.com/roach88/forgery/internal/store"
)

// newLine builds coal(1/tick) -> feed(10) -> out(1) -> yard.
func newLine(t *testing.T) *engine.Simulation {
	t.Helper()
	sim := engine.NewSimulation()
	_, err := sim.AddSource("coal", "coal", engine.MustRate("1"), 1)
	require.NoError(t, err)
	_, err = sim.AddBelt("feed", 10)
	require.NoError(t, err)
	_, err = sim.AddBelt("out", 1)
	require.NoError(t, err)
	_, err = sim.AddSink("yard")
	require.NoError(t, err)
	require.NoError(t, sim.Link("coal", "feed"))
	require.NoError(t, sim.Link("feed", "out"))
	require.NoError(t, sim.Link("out", "yard"))
	return sim
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
