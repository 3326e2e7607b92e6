package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/proc"
)

func TestExitCleanWithResult(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.engine.ReportResult(ctx, id, "draft polished", []string{"docs/draft.md"})
	env.spawner.last().exit(0)
	env.waitFinalized(t, id)

	assert.Equal(t, commission.StatusCompleted, env.status(t, id))

	rec := env.record(t, id)
	assert.Equal(t, "draft polished", rec.ResultSummary)
	assert.Equal(t, []string{"docs/draft.md"}, rec.Artifacts)

	evs := env.statusEvents("completed")
	require.Len(t, evs, 1)
	assert.Equal(t, "worker completed", evs[0].Reason)
}

func TestExitCrashAfterResultStillCompletes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.engine.ReportResult(ctx, id, "done anyway", nil)
	env.spawner.last().exit(5)
	env.waitFinalized(t, id)

	// The submitted result outranks the dirty exit code.
	assert.Equal(t, commission.StatusCompleted, env.status(t, id))
	assert.Equal(t, "done anyway", env.record(t, id).ResultSummary)

	evs := env.statusEvents("completed")
	require.Len(t, evs, 1)
	assert.Contains(t, evs[0].Reason, "crashed after submitting its result")
	assert.Contains(t, evs[0].Reason, "exit code 5")
}

func TestExitCleanWithoutResultFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.spawner.last().exit(0)
	env.waitFinalized(t, id)

	assert.Equal(t, commission.StatusFailed, env.status(t, id))
	evs := env.statusEvents("failed")
	require.Len(t, evs, 1)
	assert.Equal(t, "worker exited without submitting a result", evs[0].Reason)
}

func TestExitCrashWithoutResultFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.spawner.last().exit(9)
	env.waitFinalized(t, id)

	assert.Equal(t, commission.StatusFailed, env.status(t, id))
	evs := env.statusEvents("failed")
	require.Len(t, evs, 1)
	assert.Contains(t, evs[0].Reason, "exit code 9")
}

func TestExitNotificationFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	env.spawner.last().failExit(errors.New("wait4: no child processes"))
	env.waitFinalized(t, id)

	assert.Equal(t, commission.StatusFailed, env.status(t, id))
	evs := env.statusEvents("failed")
	require.Len(t, evs, 1)
	assert.Contains(t, evs[0].Reason, "worker failure")
	assert.Contains(t, evs[0].Reason, "no child processes")
}

func TestExitRemovesWorkdir(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	ac, ok := env.engine.active.get(id)
	require.True(t, ok)
	require.DirExists(t, ac.WorkDir)

	env.spawner.last().exit(0)
	env.waitFinalized(t, id)

	assert.NoDirExists(t, ac.WorkDir)
}

func TestLateExitAfterCancelIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Options{})
	id := env.create(t, "stylist", "prompt")
	require.NoError(t, env.engine.Dispatch(ctx, id))

	require.NoError(t, env.engine.Cancel(ctx, id))
	assert.Equal(t, commission.StatusCancelled, env.status(t, id))

	// The process dies later; cancellation already claimed the entry, so
	// the exit resolver must not emit or persist anything further.
	env.spawner.last().exit(0)

	assert.Never(t, func() bool {
		return len(env.statusEvents("completed"))+len(env.statusEvents("failed")) > 0
	}, 200*time.Millisecond, 10*time.Millisecond)

	assert.Equal(t, commission.StatusCancelled, env.status(t, id))
	assert.Len(t, env.statusEvents("cancelled"), 1)
}

func TestClassifyExit(t *testing.T) {
	tests := []struct {
		name      string
		submitted bool
		code      int
		want      commission.Status
		reason    string
	}{
		{"clean with result", true, 0, commission.StatusCompleted, "worker completed"},
		{"dirty with result", true, 3, commission.StatusCompleted, "crashed after submitting"},
		{"clean without result", false, 0, commission.StatusFailed, "without submitting a result"},
		{"dirty without result", false, 137, commission.StatusFailed, "exit code 137"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := classifyExit(tt.submitted, proc.ExitResult{Code: tt.code})
			assert.Equal(t, tt.want, got)
			assert.Contains(t, reason, tt.reason)
		})
	}
}
