// Package engine is the commission session core: the status state machine
// driver, the dispatch pipeline, exit resolution, heartbeat liveness
// detection, and grace-period cancellation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/artifact"
	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/events"
	"github.com/atelierhq/atelier/internal/log"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/snapshot"
	"github.com/atelierhq/atelier/internal/workerpkg"
	"github.com/atelierhq/atelier/internal/workspace"
)

// SnapshotWriter receives best-effort ActiveCommission state snapshots.
type SnapshotWriter interface {
	Upsert(ctx context.Context, snap snapshot.Snapshot) error
}

// Options tunes the engine's timers and the callback address handed to
// workers.
type Options struct {
	HeartbeatInterval  time.Duration
	StalenessThreshold time.Duration
	GraceWindow        time.Duration
	CallbackAddr       string
}

// DefaultOptions returns the stock timer settings.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval:  30 * time.Second,
		StalenessThreshold: 180 * time.Second,
		GraceWindow:        30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = d.HeartbeatInterval
	}
	if o.StalenessThreshold <= 0 {
		o.StalenessThreshold = d.StalenessThreshold
	}
	if o.GraceWindow <= 0 {
		o.GraceWindow = d.GraceWindow
	}
	return o
}

// Engine owns the active commission registry and orchestrates every
// lifecycle operation. Construct one per daemon lifetime.
type Engine struct {
	store      artifact.Store
	projects   []artifact.ProjectRef
	spawner    proc.Spawner
	workers    *workerpkg.Registry
	workspaces *workspace.Manager
	snapshots  SnapshotWriter // nil disables snapshots
	hub        *events.Hub
	opts       Options
	logger     *slog.Logger

	active *activeRegistry

	// alive probes a pid with a zero-effect signal; swapped in tests.
	alive func(pid int) bool
	now   func() time.Time

	mu          sync.Mutex
	graceTimers map[string]*time.Timer
	closed      bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// New constructs the engine. snapshots may be nil to disable crash-visibility
// snapshots; hub may be nil to create a private one.
func New(store artifact.Store, projects []artifact.ProjectRef, spawner proc.Spawner,
	workers *workerpkg.Registry, workspaces *workspace.Manager,
	snapshots SnapshotWriter, hub *events.Hub, opts Options) *Engine {
	if hub == nil {
		hub = events.NewHub(128)
	}
	return &Engine{
		store:       store,
		projects:    projects,
		spawner:     spawner,
		workers:     workers,
		workspaces:  workspaces,
		snapshots:   snapshots,
		hub:         hub,
		opts:        opts.withDefaults(),
		logger:      log.WithComponent("engine"),
		active:      newActiveRegistry(),
		alive:       proc.Alive,
		now:         time.Now,
		graceTimers: make(map[string]*time.Timer),
		stopCh:      make(chan struct{}),
	}
}

// Hub exposes the engine's event hub for subscribers.
func (e *Engine) Hub() *events.Hub { return e.hub }

// ActiveCount reports the number of live registry entries.
func (e *Engine) ActiveCount() int { return e.active.len() }

// Close stops the heartbeat monitor and releases all pending grace timers
// deterministically. Worker processes themselves are not touched; their
// volatile bookkeeping is simply abandoned.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.stopCh)
	for id, t := range e.graceTimers {
		t.Stop()
		delete(e.graceTimers, id)
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("engine closed")
}

// findProject probes each configured project for the commission and returns
// the owner together with the persisted status.
func (e *Engine) findProject(ctx context.Context, id string) (artifact.ProjectRef, commission.Status, error) {
	for _, project := range e.projects {
		status, ok, err := e.store.ReadStatus(ctx, project, id)
		if err != nil {
			return artifact.ProjectRef{}, "", fmt.Errorf("probe project %q: %w", project.Name, err)
		}
		if ok {
			return project, status, nil
		}
	}
	return artifact.ProjectRef{}, "", &commission.NotFoundError{Kind: "commission", ID: id}
}

func (e *Engine) projectByName(name string) (artifact.ProjectRef, bool) {
	for _, p := range e.projects {
		if p.Name == name {
			return p, true
		}
	}
	return artifact.ProjectRef{}, false
}

// transition validates the from -> to edge, then persists the new status and
// a status_<to> timeline entry. There is no compensation if persistence
// fails after validation: the caller must treat the on-disk state as unknown
// and propagate the error.
func (e *Engine) transition(ctx context.Context, project artifact.ProjectRef, id string, from, to commission.Status, reason string) error {
	if err := commission.ValidateTransition(from, to); err != nil {
		return err
	}
	if err := e.store.UpdateStatus(ctx, project, id, to); err != nil {
		return &commission.PersistenceError{Op: "status", ID: id, Err: err}
	}
	if err := e.store.AppendTimelineEntry(ctx, project, id, "status_"+string(to), reason,
		map[string]string{"from": string(from), "to": string(to)}); err != nil {
		return &commission.PersistenceError{Op: "timeline", ID: id, Err: err}
	}
	e.active.setStatus(id, to)
	return nil
}

// resetForRedispatch is the one deliberate escape hatch from the lifecycle
// graph: it resets a terminal failed/cancelled commission directly to
// pending with a manually appended timeline entry, bypassing transition().
// No other caller may skip graph validation.
func (e *Engine) resetForRedispatch(ctx context.Context, project artifact.ProjectRef, id string, from commission.Status) error {
	if err := e.store.UpdateStatus(ctx, project, id, commission.StatusPending); err != nil {
		return &commission.PersistenceError{Op: "status", ID: id, Err: err}
	}
	if err := e.store.AppendTimelineEntry(ctx, project, id, "redispatch_reset", "reset for redispatch",
		map[string]string{"from": string(from), "to": string(commission.StatusPending)}); err != nil {
		return &commission.PersistenceError{Op: "timeline", ID: id, Err: err}
	}
	return nil
}

func (e *Engine) publishStatus(id string, status commission.Status, reason string) {
	e.hub.Publish(events.TypeCommissionStatus, events.StatusPayload{
		ID:     id,
		Status: string(status),
		Reason: reason,
	})
}

// writeSnapshot persists an ActiveCommission snapshot, best effort.
func (e *Engine) writeSnapshot(ctx context.Context, ac *ActiveCommission, phase snapshot.Phase) {
	if e.snapshots == nil {
		return
	}
	err := e.snapshots.Upsert(ctx, snapshot.Snapshot{
		CommissionID:    ac.ID,
		Project:         ac.Project.Name,
		Worker:          ac.Worker,
		PID:             ac.PID,
		Phase:           phase,
		Status:          ac.Status,
		ResultSubmitted: ac.ResultSubmitted,
		WorkDir:         ac.WorkDir,
		ConfigPath:      ac.ConfigPath,
		ConfigChecksum:  ac.ConfigChecksum,
		StartedAt:       ac.StartedAt,
		LastHeartbeat:   ac.LastHeartbeat,
	})
	if err != nil {
		e.logger.Warn("failed to write active commission snapshot",
			"commission_id", ac.ID, "phase", string(phase), "error", err)
	}
}
