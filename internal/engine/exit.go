package engine

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/log"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/snapshot"
)

// watchExit waits for the worker's exit notification and feeds it to the
// exit resolver. Daemon shutdown abandons the watch: active bookkeeping is
// volatile and only the persisted artifact survives.
func (e *Engine) watchExit(id string, h proc.Handle) {
	defer e.wg.Done()
	select {
	case res := <-h.Done():
		e.resolveExit(id, res)
	case <-e.stopCh:
	}
}

// resolveExit classifies a worker termination with the exit matrix and runs
// finalization. Failures here are never raised to a caller; this runs on a
// background goroutine.
func (e *Engine) resolveExit(id string, res proc.ExitResult) {
	ac, ok := e.active.claim(id)
	if !ok {
		// Already finalized by cancellation or the heartbeat monitor: a
		// legitimate race, not an error.
		e.logger.Debug("exit for commission with no active entry", "commission_id", id)
		return
	}

	// A failure of the exit notification itself (spawn layer) is a worker
	// failure with the failure text as the reason.
	if res.Err != nil {
		e.finalize(ac, commission.StatusFailed, fmt.Sprintf("worker failure: %v", res.Err))
		return
	}

	final, reason := classifyExit(ac.ResultSubmitted, res)
	if ac.ResultSubmitted && res.Code != 0 {
		e.logger.Warn("worker crashed after submitting a result",
			"commission_id", id, "exit_code", res.Code, "signal", res.Signal)
	}
	e.finalize(ac, final, reason)
}

// classifyExit is the exit matrix: (result submitted × exit code) to final
// status and reason.
func classifyExit(resultSubmitted bool, res proc.ExitResult) (commission.Status, string) {
	switch {
	case resultSubmitted && res.Code == 0:
		return commission.StatusCompleted, "worker completed"
	case resultSubmitted:
		return commission.StatusCompleted,
			fmt.Sprintf("worker completed but crashed after submitting its result (exit code %d)", res.Code)
	case res.Code == 0:
		return commission.StatusFailed, "worker exited without submitting a result"
	default:
		return commission.StatusFailed,
			fmt.Sprintf("worker crashed with no result (exit code %d)", res.Code)
	}
}

// finalize is the single convergence point for exit handling, heartbeat
// failure, and cancellation: persist the final status, flush any buffered
// result, emit the status event, and clean up. The registry entry has
// already been claimed by the caller; only the state-machine transition is
// required to succeed, every other step is logged and swallowed.
func (e *Engine) finalize(ac *ActiveCommission, final commission.Status, reason string) {
	ctx := context.Background()
	clog := log.WithCommission(ac.ID)
	e.clearGraceTimer(ac.ID)

	if err := e.transition(ctx, ac.Project, ac.ID, ac.Status, final, reason); err != nil {
		clog.Error("failed to persist final status", "status", string(final), "error", err)
	}
	ac.Status = final

	if final == commission.StatusCompleted && ac.ResultSubmitted && ac.ResultSummary != "" {
		if err := e.store.UpdateResultSummary(ctx, ac.Project, ac.ID, ac.ResultSummary, ac.ResultArtifacts); err != nil {
			clog.Error("failed to persist result summary", "error", err)
		}
	}

	e.publishStatus(ac.ID, final, reason)

	if err := e.workspaces.Remove(ctx, ac.ID); err != nil {
		clog.Warn("failed to remove workdir", "error", err)
	}
	e.writeSnapshot(ctx, ac, snapshot.PhaseFinal)

	clog.Info("commission finalized", "status", string(final), "reason", reason, "pid", ac.PID)
}
