package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/artifact"
	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/events"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/workerpkg"
	"github.com/atelierhq/atelier/internal/workspace"
)

// fakeHandle is a controllable stand-in for a worker process.
type fakeHandle struct {
	pid  int
	done chan proc.ExitResult

	mu    sync.Mutex
	kills []proc.Severity
}

func (h *fakeHandle) PID() int                     { return h.pid }
func (h *fakeHandle) Done() <-chan proc.ExitResult { return h.done }

func (h *fakeHandle) Kill(sev proc.Severity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kills = append(h.kills, sev)
	return nil
}

func (h *fakeHandle) exit(code int) {
	h.done <- proc.ExitResult{Code: code}
}

func (h *fakeHandle) failExit(err error) {
	h.done <- proc.ExitResult{Code: -1, Err: err}
}

func (h *fakeHandle) killsSeen() []proc.Severity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]proc.Severity(nil), h.kills...)
}

// fakeSpawner hands out fakeHandles and records config paths.
type fakeSpawner struct {
	mu      sync.Mutex
	err     error
	nextPID int
	handles []*fakeHandle
	configs []string
}

func (s *fakeSpawner) Spawn(configPath string) (proc.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.nextPID++
	h := &fakeHandle{pid: 1000 + s.nextPID, done: make(chan proc.ExitResult, 1)}
	s.handles = append(s.handles, h)
	s.configs = append(s.configs, configPath)
	return h, nil
}

func (s *fakeSpawner) last() *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

type testEnv struct {
	engine  *Engine
	store   *artifact.FSStore
	project artifact.ProjectRef
	spawner *fakeSpawner
	hub     *events.Hub
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	store := artifact.NewFSStore()
	project := artifact.ProjectRef{Name: "studio", Path: t.TempDir()}

	ws, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)

	reg := workerpkg.NewRegistry()
	require.NoError(t, reg.Add(&workerpkg.Worker{
		Name:    "stylist",
		Package: "atelier.workers.stylist",
		Version: "1.0.0",
	}))

	spawner := &fakeSpawner{}
	hub := events.NewHub(64)
	opts.CallbackAddr = "127.0.0.1:7777"

	eng := New(store, []artifact.ProjectRef{project}, spawner, reg, ws, nil, hub, opts)
	t.Cleanup(eng.Close)

	return &testEnv{
		engine:  eng,
		store:   store,
		project: project,
		spawner: spawner,
		hub:     hub,
	}
}

func (env *testEnv) create(t *testing.T, worker, prompt string) string {
	t.Helper()
	id, err := env.engine.CreateCommission(context.Background(), "studio", commission.Spec{
		Worker: worker,
		Prompt: prompt,
	})
	require.NoError(t, err)
	return id
}

func (env *testEnv) status(t *testing.T, id string) commission.Status {
	t.Helper()
	status, ok, err := env.store.ReadStatus(context.Background(), env.project, id)
	require.NoError(t, err)
	require.True(t, ok)
	return status
}

func (env *testEnv) record(t *testing.T, id string) *commission.Record {
	t.Helper()
	rec, err := env.store.Read(context.Background(), env.project, id)
	require.NoError(t, err)
	return rec
}

// statusEvents filters commission_status events, optionally by status value.
func (env *testEnv) statusEvents(status string) []events.StatusPayload {
	var out []events.StatusPayload
	for _, ev := range env.hub.SnapshotSince(0) {
		if ev.Type != events.TypeCommissionStatus {
			continue
		}
		var p events.StatusPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			continue
		}
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// waitFinalized polls until the registry no longer holds id.
func (env *testEnv) waitFinalized(t *testing.T, id string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := env.engine.active.get(id); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("commission %s was never finalized", id)
}
