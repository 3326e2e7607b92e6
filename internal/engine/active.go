package engine

import (
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/artifact"
	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/proc"
)

// ActiveCommission is the volatile bookkeeping for a commission currently
// believed to have a live worker process. It exists only between dispatch
// and finalization; only the persisted artifact survives a daemon restart.
type ActiveCommission struct {
	ID      string
	Project artifact.ProjectRef
	Worker  string
	PID     int

	StartedAt     time.Time
	LastHeartbeat time.Time

	// Status mirrors the persisted record so finalizers can check it
	// without re-reading the artifact.
	Status commission.Status

	// ResultSubmitted flips when the worker reports a result; the summary
	// and artifacts are buffered here and persisted lazily at exit time.
	ResultSubmitted bool
	ResultSummary   string
	ResultArtifacts []string

	WorkDir        string
	ConfigPath     string
	ConfigChecksum string

	handle proc.Handle
}

// activeRegistry is the single shared mutable structure of the engine: a
// mutex-guarded map from commission id to live bookkeeping. At most one
// entry exists per commission id.
type activeRegistry struct {
	mu      sync.Mutex
	entries map[string]*ActiveCommission
}

func newActiveRegistry() *activeRegistry {
	return &activeRegistry{entries: make(map[string]*ActiveCommission)}
}

// insert registers ac. Fails if an entry for the id already exists.
func (r *activeRegistry) insert(ac *ActiveCommission) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[ac.ID]; exists {
		return false
	}
	r.entries[ac.ID] = ac
	return true
}

// get returns a copy of the entry for reads outside the lock.
func (r *activeRegistry) get(id string) (ActiveCommission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok {
		return ActiveCommission{}, false
	}
	return *ac, true
}

// claim removes and returns the entry, but only while its status mirror is
// non-terminal. Registry absence (or a terminal mirror) is the universal
// "someone else already finalized this" signal: whichever finalizer claims
// first wins, every later one becomes a no-op.
func (r *activeRegistry) claim(id string) (*ActiveCommission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok || ac.Status.Terminal() {
		return nil, false
	}
	delete(r.entries, id)
	return ac, true
}

// claimInProgress removes and returns the entry, but only while its status
// mirror is in_progress. When the claim is refused the blocking status is
// returned so the caller can report it without having touched the process: a
// dispatched mirror means the dispatch tail has not persisted the start
// transition yet.
func (r *activeRegistry) claimInProgress(id string) (*ActiveCommission, commission.Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok {
		return nil, "", false
	}
	if ac.Status != commission.StatusInProgress {
		return nil, ac.Status, false
	}
	delete(r.entries, id)
	return ac, ac.Status, true
}

// touch refreshes the heartbeat timestamp. Returns false for unknown ids.
func (r *activeRegistry) touch(id string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok {
		return false
	}
	ac.LastHeartbeat = now
	return true
}

// setResult records a submitted result and buffers its summary/artifacts
// for lazy persistence at exit time. Also refreshes the heartbeat.
func (r *activeRegistry) setResult(id, summary string, artifacts []string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok {
		return false
	}
	ac.ResultSubmitted = true
	ac.ResultSummary = summary
	ac.ResultArtifacts = artifacts
	ac.LastHeartbeat = now
	return true
}

// setStatus updates the local status mirror. Returns false for unknown ids.
func (r *activeRegistry) setStatus(id string, status commission.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ac, ok := r.entries[id]
	if !ok {
		return false
	}
	ac.Status = status
	return true
}

// list returns copies of all entries for lock-free iteration.
func (r *activeRegistry) list() []ActiveCommission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActiveCommission, 0, len(r.entries))
	for _, ac := range r.entries {
		out = append(out, *ac)
	}
	return out
}

func (r *activeRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
