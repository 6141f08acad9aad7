package runstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunRoundTrip(t *testing.T) {
	store := openTestStore(t)

	rec := RunRecord{
		RunID:      "run-1",
		TaskID:     "task-a",
		CreatedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Verdict:    "HARD_CANT",
		FailedGate: "reachability",
		TopFix:     "MOVE_TARGET",
		Evidence:   []byte(`{"task_id":"task-a"}`),
	}
	require.NoError(t, store.InsertRun(rec))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.TaskID, got.TaskID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, rec.Verdict, got.Verdict)
	assert.Equal(t, rec.FailedGate, got.FailedGate)
	assert.Equal(t, rec.TopFix, got.TopFix)
	assert.JSONEq(t, string(rec.Evidence), string(got.Evidence))
}

func TestRunNullableFields(t *testing.T) {
	store := openTestStore(t)

	rec := RunRecord{
		RunID:     "run-can",
		TaskID:    "task-b",
		CreatedAt: time.Now().UTC(),
		Verdict:   "CAN",
		Evidence:  []byte(`{}`),
	}
	require.NoError(t, store.InsertRun(rec))

	got, err := store.GetRun("run-can")
	require.NoError(t, err)
	assert.Empty(t, got.FailedGate)
	assert.Empty(t, got.TopFix)
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertRun(RunRecord{
			RunID:     string(rune('a' + i)),
			TaskID:    "task",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Verdict:   "CAN",
			Evidence:  []byte(`{}`),
		}))
	}

	runs, err := store.ListRecent(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "e", runs[0].RunID)
	assert.Equal(t, "d", runs[1].RunID)
	assert.Equal(t, "c", runs[2].RunID)
}

func TestListRecentSameSecondOrdering(t *testing.T) {
	store := openTestStore(t)

	// A whole-second timestamp and a fractional one inside the same
	// second: the stored text must still sort in time order.
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, rec := range []RunRecord{
		{RunID: "whole", TaskID: "task", CreatedAt: base, Verdict: "CAN", Evidence: []byte(`{}`)},
		{RunID: "frac", TaskID: "task", CreatedAt: base.Add(500 * time.Millisecond), Verdict: "CAN", Evidence: []byte(`{}`)},
	} {
		require.NoError(t, store.InsertRun(rec))
	}

	runs, err := store.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "frac", runs[0].RunID)
	assert.Equal(t, "whole", runs[1].RunID)
}

func TestListRecentDefaultLimit(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.ListRecent(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSweepRoundTrip(t *testing.T) {
	store := openTestStore(t)

	rec := SweepRecord{
		SweepID:   "sweep-1",
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		N:         20,
		Seed:      42,
		Summary:   []byte(`{"can_count":12,"hard_cant_count":8}`),
		RunIDs:    []string{"r1", "r2", "r3"},
	}
	require.NoError(t, store.InsertSweep(rec))

	got, err := store.GetSweep("sweep-1")
	require.NoError(t, err)
	assert.Equal(t, rec.SweepID, got.SweepID)
	assert.Equal(t, rec.N, got.N)
	assert.Equal(t, rec.Seed, got.Seed)
	assert.Equal(t, rec.RunIDs, got.RunIDs)
	assert.JSONEq(t, string(rec.Summary), string(got.Summary))
}

func TestGetSweepNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSweep("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store := openTestStore(t)

	rec := RunRecord{
		RunID:     "dup",
		TaskID:    "task",
		CreatedAt: time.Now().UTC(),
		Verdict:   "CAN",
		Evidence:  []byte(`{}`),
	}
	require.NoError(t, store.InsertRun(rec))
	assert.Error(t, store.InsertRun(rec))
}
