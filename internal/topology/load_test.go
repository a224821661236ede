package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadErr(t *testing.T, err error) *LoadError {
	t.Helper()
	var le *LoadError
	require.True(t, errors.As(err, &le), "expected LoadError, got %v", err)
	return le
}

func TestLoad_Chain(t *testing.T) {
	top, err := Load("testdata/chain")
	require.NoError(t, err)

	require.Len(t, top.Sources, 1)
	assert.Equal(t, "1/5", top.Sources[0].Rate.String())
	require.Len(t, top.Buildings, 2)
	assert.Equal(t, "smelter", top.Buildings[0].ID)
	assert.Equal(t, "press", top.Buildings[1].ID)
	assert.Len(t, top.Links, 5)
	assert.True(t, top.Sources[0].Pos.IsValid())
}

func TestLoad_ChainDelivers(t *testing.T) {
	top, err := Load("testdata/chain")
	require.NoError(t, err)
	sim, err := New(top)
	require.NoError(t, err)

	sim.Start()
	sim.Step(72)
	yard, ok := sim.Sink("yard")
	require.True(t, ok)
	assert.Equal(t, 10, yard.Delivered())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ErrCodeNotFound, loadErr(t, err).Code)
}

func TestLoad_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.cue")
	require.NoError(t, os.WriteFile(path, []byte("package factory\n"), 0o644))

	_, err := Load(path)
	assert.Equal(t, ErrCodeNotFound, loadErr(t, err).Code)
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Equal(t, ErrCodeNoFiles, loadErr(t, err).Code)
}

func TestLoad_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "factory.cue"), []byte("package factory\nbelt: {{{\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, ErrCodeLoadFailed, loadErr(t, err).Code)
}

func TestLoad_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources.cue"), []byte(`package factory
source: coal: {rate: 1}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "belts.cue"), []byte(`package factory
belt: feed: {capacity: 3}
link: [{from: "coal", to: "feed"}]
`), 0o644))

	top, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, top.Sources, 1)
	assert.Len(t, top.Belts, 1)
	assert.Len(t, top.Links, 1)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
}
