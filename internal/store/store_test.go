package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}

func TestOpen_CreatesLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	for _, table := range []string{"runs", "samples", "deliveries"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
	for _, index := range []string{"idx_deliveries_sink", "idx_samples_component"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		assert.NoError(t, err, "index %s", index)
	}
	assert.Equal(t, fmt.Sprint(SchemaVersion), pragma(t, s, "user_version"))
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	createTestRun(t, s1, "run-1")
	require.NoError(t, s1.WriteDelivery(ctx, "run-1", Delivery{Seq: 1, Tick: 3, Sink: "yard", Material: "coal"}))
	require.NoError(t, s1.FinishRun(ctx, "run-1", 4))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	run, err := s2.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, run.FinalTick)
	assert.Equal(t, int64(4), *run.FinalTick)

	deliveries, err := s2.ReadDeliveries(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, deliveries, 1)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "runs.db"))
	assert.Error(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, "wal", pragma(t, s, "journal_mode"))
	assert.Equal(t, "1", pragma(t, s, "synchronous"))
	assert.Equal(t, "5000", pragma(t, s, "busy_timeout"))
	assert.Equal(t, "1", pragma(t, s, "foreign_keys"))
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	createTestRun(t, s, "run-1")
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClose_ZeroStore(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestSchema_SampleKindChecked(t *testing.T) {
	s := createTestStore(t)
	createTestRun(t, s, "run-1")

	err := s.WriteSamples(context.Background(), "run-1", []Sample{{Tick: 1, Component: "x", Kind: "conveyor", Value: 1}})
	assert.Error(t, err)
}

func TestSchema_DeliveryNeedsRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteDelivery(context.Background(), "missing", Delivery{Seq: 1, Tick: 1, Sink: "yard", Material: "coal"})
	assert.Error(t, err, "foreign keys are enforced")
}
