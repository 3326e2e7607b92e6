package engine

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/log"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/snapshot"
)

// Cancel terminates an active commission: a graceful signal now, a forced
// signal after the grace window, and an optimistic, immediate finalization
// of the bookkeeping. The call never waits for the process to actually die;
// the later natural exit finds no registry entry and becomes a no-op.
//
// Only an in_progress mirror is cancellable. A dispatched mirror means the
// dispatch tail has not persisted the start transition yet; signalling the
// worker before rejecting the transition would strand partial state, so the
// claim itself is refused and the caller retries.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	ac, current, ok := e.active.claimInProgress(id)
	if !ok {
		if current == commission.StatusDispatched {
			return &commission.InvalidStateError{
				ID: id, Op: "cancel",
				Current:  current,
				Required: []commission.Status{commission.StatusInProgress},
			}
		}
		return &commission.NotFoundError{Kind: "active commission", ID: id}
	}
	clog := log.WithCommission(id)

	// Best effort: the process may already be gone.
	if err := ac.handle.Kill(proc.SeverityGraceful); err != nil {
		clog.Debug("graceful termination signal failed", "pid", ac.PID, "error", err)
	}
	e.armGraceTimer(id, ac.handle)

	if err := e.transition(ctx, ac.Project, ac.ID, ac.Status, commission.StatusCancelled, "cancelled by user"); err != nil {
		clog.Error("failed to persist cancellation", "error", err)
		return err
	}
	ac.Status = commission.StatusCancelled

	e.publishStatus(id, commission.StatusCancelled, "cancelled by user")

	if err := e.workspaces.Remove(ctx, id); err != nil {
		clog.Warn("failed to remove workdir", "error", err)
	}
	e.writeSnapshot(ctx, ac, snapshot.PhaseFinal)

	clog.Info("commission cancelled", "pid", ac.PID, "grace_window", e.opts.GraceWindow)
	return nil
}

// armGraceTimer schedules the forced-termination signal. The timer handle is
// tracked so a faster natural exit supersedes it and a daemon shutdown
// releases it deterministically.
func (e *Engine) armGraceTimer(id string, h proc.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if old, ok := e.graceTimers[id]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(e.opts.GraceWindow, func() {
		e.mu.Lock()
		if e.graceTimers[id] == timer {
			delete(e.graceTimers, id)
		}
		e.mu.Unlock()

		if err := h.Kill(proc.SeverityForce); err != nil {
			e.logger.Debug("forced termination signal failed", "commission_id", id, "error", err)
			return
		}
		e.logger.Warn("worker did not exit within grace window, forced termination sent",
			"commission_id", id, "pid", h.PID())
	})
	e.graceTimers[id] = timer
}

// clearGraceTimer stops a pending forced-termination timer, if any. Called
// when the process exits naturally before the grace window elapses.
func (e *Engine) clearGraceTimer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timer, ok := e.graceTimers[id]; ok {
		timer.Stop()
		delete(e.graceTimers, id)
	}
}
