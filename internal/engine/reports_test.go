package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/events"
)

func TestReportProgressPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.backdateHeartbeat(id, time.Now().Add(-time.Minute))
	before, _ := env.engine.active.get(id)

	env.engine.ReportProgress(ctx, id, "chapter 2 of 5")

	assert.Equal(t, "chapter 2 of 5", env.record(t, id).Progress)

	after, ok := env.engine.active.get(id)
	require.True(t, ok)
	assert.True(t, after.LastHeartbeat.After(before.LastHeartbeat))

	var got []events.ProgressPayload
	for _, ev := range env.hub.SnapshotSince(0) {
		if ev.Type != events.TypeCommissionProgress {
			continue
		}
		var p events.ProgressPayload
		require.NoError(t, json.Unmarshal(ev.Data, &p))
		got = append(got, p)
	}
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "chapter 2 of 5", got[0].Summary)
}

func TestReportResultBuffersUntilExit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.engine.ReportResult(ctx, id, "finished", []string{"out.md"})

	// Buffered on the active entry, not yet on disk.
	assert.Empty(t, env.record(t, id).ResultSummary)
	ac, ok := env.engine.active.get(id)
	require.True(t, ok)
	assert.True(t, ac.ResultSubmitted)
	assert.Equal(t, "finished", ac.ResultSummary)

	// The result event goes out at report time, not at exit time.
	var results []events.ResultPayload
	for _, ev := range env.hub.SnapshotSince(0) {
		if ev.Type != events.TypeCommissionResult {
			continue
		}
		var p events.ResultPayload
		require.NoError(t, json.Unmarshal(ev.Data, &p))
		results = append(results, p)
	}
	require.Len(t, results, 1)
	assert.Equal(t, []string{"out.md"}, results[0].Artifacts)

	env.spawner.last().exit(0)
	env.waitFinalized(t, id)

	rec := env.record(t, id)
	assert.Equal(t, "finished", rec.ResultSummary)
	assert.Equal(t, []string{"out.md"}, rec.Artifacts)

	// No duplicate result event at exit.
	var total int
	for _, ev := range env.hub.SnapshotSince(0) {
		if ev.Type == events.TypeCommissionResult {
			total++
		}
	}
	assert.Equal(t, 1, total)
}

func TestReportQuestionPublishesOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.engine.ReportQuestion(ctx, id, "which tone should the summary take?")

	var got []events.QuestionPayload
	for _, ev := range env.hub.SnapshotSince(0) {
		if ev.Type != events.TypeCommissionQuestion {
			continue
		}
		var p events.QuestionPayload
		require.NoError(t, json.Unmarshal(ev.Data, &p))
		got = append(got, p)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "which tone should the summary take?", got[0].Question)

	// Questions leave the artifact untouched.
	rec := env.record(t, id)
	assert.Empty(t, rec.Progress)
	assert.Empty(t, rec.ResultSummary)
}

func TestReportsAfterFinalizationAreIgnored(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.spawner.last().exit(3)
	env.waitFinalized(t, id)
	require.Equal(t, commission.StatusFailed, env.status(t, id))

	// Late callbacks from a finalized worker are dropped silently.
	env.engine.ReportProgress(ctx, id, "too late")
	env.engine.ReportResult(ctx, id, "too late", nil)
	env.engine.ReportQuestion(ctx, id, "too late?")

	rec := env.record(t, id)
	assert.Empty(t, rec.Progress)
	assert.Empty(t, rec.ResultSummary)
	assert.Equal(t, commission.StatusFailed, rec.Status)

	for _, ev := range env.hub.SnapshotSince(0) {
		switch ev.Type {
		case events.TypeCommissionProgress, events.TypeCommissionResult, events.TypeCommissionQuestion:
			t.Fatalf("unexpected %s event after finalization", ev.Type)
		}
	}
}

func TestAddUserNote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")

	require.NoError(t, env.engine.AddUserNote(ctx, id, "client wants a shorter intro"))

	rec := env.record(t, id)
	var found bool
	for _, entry := range rec.Timeline {
		if entry.Event == "user_note" && entry.Reason == "client wants a shorter intro" {
			found = true
		}
	}
	assert.True(t, found, "user_note entry missing from timeline")

	err := env.engine.AddUserNote(ctx, "c-missing", "note")
	var nf *commission.NotFoundError
	require.ErrorAs(t, err, &nf)
}
