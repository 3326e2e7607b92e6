package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelierd.pid")
	l, err := Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.Equal(t, path, l.Path())
}

func TestAcquireRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelierd.pid")
	l, err := Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	_, err = Acquire(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")
}

func TestReleaseAllowsReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelierd.pid")
	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	l2, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquireCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "atelierd.pid")
	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestAcquireRejectsEmptyPath(t *testing.T) {
	_, err := Acquire("")
	require.Error(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelierd.pid")
	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
	require.NoError(t, l.Release())

	var nilLock *PIDLock
	assert.NoError(t, nilLock.Release())
}
