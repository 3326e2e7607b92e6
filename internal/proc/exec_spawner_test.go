package proc

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitExit(t *testing.T, h Handle) ExitResult {
	t.Helper()
	select {
	case res := <-h.Done():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for process exit")
		return ExitResult{}
	}
}

func TestSpawnDeliversCleanExit(t *testing.T) {
	spawner, err := NewExecSpawner([]string{"/bin/sh", "-c", "exit 0"})
	require.NoError(t, err)

	h, err := spawner.Spawn("/dev/null")
	require.NoError(t, err)
	assert.Greater(t, h.PID(), 0)

	res := waitExit(t, h)
	assert.Equal(t, 0, res.Code)
	assert.NoError(t, res.Err)
}

func TestSpawnDeliversNonZeroExit(t *testing.T) {
	spawner, err := NewExecSpawner([]string{"/bin/sh", "-c", "exit 7"})
	require.NoError(t, err)

	h, err := spawner.Spawn("/dev/null")
	require.NoError(t, err)

	res := waitExit(t, h)
	assert.Equal(t, 7, res.Code)
	assert.NoError(t, res.Err)
}

func TestSpawnMissingBinaryFails(t *testing.T) {
	spawner, err := NewExecSpawner([]string{"/nonexistent/worker-binary"})
	require.NoError(t, err)

	_, err = spawner.Spawn("/dev/null")
	require.Error(t, err)
}

func TestKillGracefulThenExit(t *testing.T) {
	spawner, err := NewExecSpawner([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)

	h, err := spawner.Spawn("/dev/null")
	require.NoError(t, err)

	require.NoError(t, h.Kill(SeverityGraceful))
	res := waitExit(t, h)
	assert.NotEqual(t, 0, res.Code)
	assert.Equal(t, "terminated", res.Signal)
}

func TestKillForce(t *testing.T) {
	spawner, err := NewExecSpawner([]string{"/bin/sh", "-c", "sleep 30"})
	require.NoError(t, err)

	h, err := spawner.Spawn("/dev/null")
	require.NoError(t, err)

	require.NoError(t, h.Kill(SeverityForce))
	res := waitExit(t, h)
	assert.Equal(t, "killed", res.Signal)
}

func TestAlive(t *testing.T) {
	assert.True(t, Alive(os.Getpid()))

	spawner, err := NewExecSpawner([]string{"/bin/sh", "-c", "exit 0"})
	require.NoError(t, err)
	h, err := spawner.Spawn("/dev/null")
	require.NoError(t, err)
	waitExit(t, h)

	// Reaped child is gone.
	assert.False(t, Alive(h.PID()))
}

func TestNewExecSpawnerRejectsEmptyCommand(t *testing.T) {
	_, err := NewExecSpawner(nil)
	require.Error(t, err)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "graceful", SeverityGraceful.String())
	assert.Equal(t, "force", SeverityForce.String())
}
