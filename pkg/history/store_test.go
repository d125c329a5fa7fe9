package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cputracker/agent/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func runAt(id string, finished time.Time) models.RunResult {
	return models.RunResult{
		RunID:       id,
		Exact:       50.0,
		Noised:      48.31,
		Epsilon:     0.5,
		SampleCount: 50,
		StartedAt:   finished.Add(-5 * time.Second),
		FinishedAt:  finished,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Record(runAt("run-1", base.Add(-2*time.Minute))))
	require.NoError(t, store.Record(runAt("run-2", base.Add(-time.Minute))))
	require.NoError(t, store.Record(runAt("run-3", base)))

	recent, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-3", recent[0].RunID)
	assert.Equal(t, "run-2", recent[1].RunID)
	assert.Equal(t, 48.31, recent[0].Noised)
	assert.Equal(t, 50, recent[0].SampleCount)
}

func TestStore_DuplicateRunID(t *testing.T) {
	store := openTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.Record(runAt("run-1", now)))
	assert.Error(t, store.Record(runAt("run-1", now)))
}

func TestStore_RecentEmpty(t *testing.T) {
	store := openTestStore(t)

	recent, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
