package engine

import (
	"time"

	"github.com/atelierhq/atelier/internal/commission"
)

// StartHeartbeatMonitor launches the background liveness scan. This is the
// only defense against workers that hang without exiting and without
// calling back. Stop it with Close.
func (e *Engine) StartHeartbeatMonitor() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.opts.HeartbeatInterval)
		defer ticker.Stop()
		e.logger.Info("heartbeat monitor started",
			"interval", e.opts.HeartbeatInterval, "staleness_threshold", e.opts.StalenessThreshold)
		for {
			select {
			case <-ticker.C:
				e.scanHeartbeats()
			case <-e.stopCh:
				e.logger.Info("heartbeat monitor stopped")
				return
			}
		}
	}()
}

// scanHeartbeats checks every live entry and fails those whose worker went
// quiet past the staleness threshold.
func (e *Engine) scanHeartbeats() {
	now := e.now()
	for _, ac := range e.active.list() {
		if ac.Status != commission.StatusDispatched && ac.Status != commission.StatusInProgress {
			continue
		}
		stale := now.Sub(ac.LastHeartbeat)
		if stale <= e.opts.StalenessThreshold {
			continue
		}

		// Zero-effect liveness probe, not a termination signal.
		reason := "process lost (no longer running)"
		if e.alive(ac.PID) {
			reason = "process unresponsive (heartbeat stale)"
		}
		e.logger.Warn("stale worker detected",
			"commission_id", ac.ID, "pid", ac.PID, "stale_for", stale, "reason", reason)

		claimed, ok := e.active.claim(ac.ID)
		if !ok {
			// Finalized between the scan snapshot and the claim.
			continue
		}
		e.finalize(claimed, commission.StatusFailed, reason)
	}
}
