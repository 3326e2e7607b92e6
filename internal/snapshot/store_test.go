package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/storage"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		CommissionID:    "c-001",
		Project:         "studio",
		Worker:          "stylist",
		PID:             4242,
		Phase:           PhaseDispatched,
		Status:          commission.StatusDispatched,
		ResultSubmitted: false,
		WorkDir:         "/tmp/atelier/c-001",
		ConfigPath:      "/tmp/atelier/c-001/commission-config.json",
		ConfigChecksum:  "abc123",
		StartedAt:       time.Now().UTC().Truncate(time.Millisecond),
		LastHeartbeat:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	snap := sampleSnapshot()
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "c-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Project, got.Project)
	assert.Equal(t, snap.PID, got.PID)
	assert.Equal(t, PhaseDispatched, got.Phase)
	assert.Equal(t, commission.StatusDispatched, got.Status)
	assert.False(t, got.ResultSubmitted)
	assert.True(t, snap.StartedAt.Equal(got.StartedAt))
}

func TestUpsertReplacesRow(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	snap := sampleSnapshot()
	require.NoError(t, store.Upsert(ctx, snap))

	snap.Phase = PhaseFinal
	snap.Status = commission.StatusCompleted
	snap.ResultSubmitted = true
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "c-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, PhaseFinal, got.Phase)
	assert.Equal(t, commission.StatusCompleted, got.Status)
	assert.True(t, got.ResultSubmitted)
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	got, err := store.Get(ctx, "c-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	err := store.Upsert(ctx, Snapshot{})
	require.Error(t, err)
}

func TestPruneRemovesOldFinalRows(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	final := sampleSnapshot()
	final.Phase = PhaseFinal
	require.NoError(t, store.Upsert(ctx, final))

	live := sampleSnapshot()
	live.CommissionID = "c-002"
	require.NoError(t, store.Upsert(ctx, live))

	// Nothing is old enough yet.
	n, err := store.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// With a tiny retention the final row goes; the dispatched row stays.
	time.Sleep(5 * time.Millisecond)
	n, err = store.Prune(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Get(ctx, "c-002")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestPruneRejectsNonPositiveRetention(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	_, err := store.Prune(ctx, 0)
	require.Error(t, err)
}
