package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/artifact"
	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/handoff"
	"github.com/atelierhq/atelier/internal/log"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/snapshot"
)

// CreateCommission mints a new pending commission in the named project and
// returns its id.
func (e *Engine) CreateCommission(ctx context.Context, projectName string, spec commission.Spec) (string, error) {
	project, ok := e.projectByName(projectName)
	if !ok {
		return "", &commission.NotFoundError{Kind: "project", ID: projectName}
	}
	if spec.Worker == "" {
		return "", fmt.Errorf("commission spec missing worker name")
	}

	id := "c-" + uuid.NewString()
	if err := e.store.Create(ctx, project, id, spec); err != nil {
		return "", &commission.PersistenceError{Op: "create", ID: id, Err: err}
	}

	e.logger.Info("commission created", "commission_id", id, "project", projectName, "worker", spec.Worker)
	e.publishStatus(id, commission.StatusPending, "commission created")
	return id, nil
}

// Dispatch spawns a worker process for a pending commission: it transitions
// pending -> dispatched -> in_progress, prepares the working directory and
// handoff file, registers the ActiveCommission, and arms the exit watcher.
func (e *Engine) Dispatch(ctx context.Context, id string) error {
	project, status, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if status != commission.StatusPending {
		return &commission.InvalidStateError{
			ID: id, Op: "dispatch",
			Current:  status,
			Required: []commission.Status{commission.StatusPending},
		}
	}

	if err := e.transition(ctx, project, id, commission.StatusPending, commission.StatusDispatched, "dispatched to worker"); err != nil {
		return err
	}

	wd, err := e.workspaces.Create(ctx, id)
	if err != nil {
		return e.failDispatch(ctx, project, id, fmt.Errorf("create workdir: %w", err))
	}

	rec, err := e.store.Read(ctx, project, id)
	if err != nil {
		return e.failDispatch(ctx, project, id, fmt.Errorf("read commission record: %w", err))
	}

	resolved := e.workers.Resolve(rec.Worker)
	if !resolved.Registered {
		// Tolerated degradation: the bare worker name stands in for a
		// registered package.
		log.WithWorker(rec.Worker).Warn("worker package not registered, using bare worker name",
			"commission_id", id)
	}

	configPath, checksum, err := handoff.WriteFile(wd.Dir, &handoff.WorkerConfig{
		Version:       handoff.Version,
		CommissionID:  id,
		ProjectName:   project.Name,
		ProjectPath:   project.Path,
		WorkerPackage: resolved.PackageName,
		Prompt:        rec.Prompt,
		DependsOn:     rec.DependsOn,
		WorkDir:       wd.Dir,
		CallbackAddr:  e.opts.CallbackAddr,
		Bounds:        rec.Bounds,
	})
	if err != nil {
		return e.failDispatch(ctx, project, id, fmt.Errorf("write worker config: %w", err))
	}

	now := e.now()
	ac := &ActiveCommission{
		ID:             id,
		Project:        project,
		Worker:         rec.Worker,
		StartedAt:      now,
		LastHeartbeat:  now,
		Status:         commission.StatusDispatched,
		WorkDir:        wd.Dir,
		ConfigPath:     configPath,
		ConfigChecksum: checksum,
	}

	// Crash visibility only; never read back for recovery.
	e.writeSnapshot(ctx, ac, snapshot.PhaseDispatched)

	h, err := e.spawner.Spawn(configPath)
	if err != nil {
		return e.failDispatch(ctx, project, id, &commission.SpawnError{Worker: rec.Worker, Err: err})
	}
	ac.PID = h.PID()
	ac.handle = h

	if !e.active.insert(ac) {
		// The pending-status guard makes this unreachable unless two
		// dispatches race; kill the extra process and bail.
		_ = h.Kill(proc.SeverityForce)
		return fmt.Errorf("commission %q already has an active entry", id)
	}

	if err := e.transition(ctx, project, id, commission.StatusDispatched, commission.StatusInProgress, "worker process started"); err != nil {
		return err
	}

	log.WithCommission(id).Info("commission dispatched",
		"project", project.Name, "worker", rec.Worker,
		"package", resolved.PackageName, "pid", ac.PID)
	e.publishStatus(id, commission.StatusInProgress, "worker process started")

	e.wg.Add(1)
	go e.watchExit(id, h)

	return nil
}

// failDispatch finalizes a dispatch that broke between the dispatched
// transition and a successful spawn: persist dispatched -> failed, clean the
// workdir, and hand the original error back.
func (e *Engine) failDispatch(ctx context.Context, project artifact.ProjectRef, id string, cause error) error {
	clog := log.WithCommission(id)
	if terr := e.transition(ctx, project, id, commission.StatusDispatched, commission.StatusFailed, cause.Error()); terr != nil {
		clog.Error("failed to record dispatch failure", "error", terr)
	} else {
		e.publishStatus(id, commission.StatusFailed, cause.Error())
	}
	if werr := e.workspaces.Remove(ctx, id); werr != nil {
		clog.Warn("failed to remove workdir after dispatch failure", "error", werr)
	}
	return cause
}

// Redispatch reruns a failed or cancelled commission under the same id,
// producing a fresh ActiveCommission and a new worker process.
func (e *Engine) Redispatch(ctx context.Context, id string) error {
	project, status, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if status != commission.StatusFailed && status != commission.StatusCancelled {
		return &commission.InvalidStateError{
			ID: id, Op: "redispatch",
			Current:  status,
			Required: []commission.Status{commission.StatusFailed, commission.StatusCancelled},
		}
	}

	if err := e.resetForRedispatch(ctx, project, id, status); err != nil {
		return err
	}
	// A grace timer armed by an earlier cancel must not fire against the
	// fresh process.
	e.clearGraceTimer(id)
	e.logger.Info("commission reset for redispatch", "commission_id", id, "previous_status", string(status))
	return e.Dispatch(ctx, id)
}

// UpdateCommission mutates the prompt, dependency, and resource-bound fields
// of a commission that is still pending.
func (e *Engine) UpdateCommission(ctx context.Context, id string, update commission.Update) error {
	project, status, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if status != commission.StatusPending {
		return &commission.InvalidStateError{
			ID: id, Op: "update",
			Current:  status,
			Required: []commission.Status{commission.StatusPending},
		}
	}
	if err := e.store.UpdateSpec(ctx, project, id, update); err != nil {
		return &commission.PersistenceError{Op: "spec", ID: id, Err: err}
	}
	return nil
}

// Block parks a pending commission.
func (e *Engine) Block(ctx context.Context, id, reason string) error {
	project, status, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if err := e.transition(ctx, project, id, status, commission.StatusBlocked, reason); err != nil {
		return err
	}
	e.publishStatus(id, commission.StatusBlocked, reason)
	return nil
}

// Unblock returns a blocked commission to pending.
func (e *Engine) Unblock(ctx context.Context, id, reason string) error {
	project, status, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if err := e.transition(ctx, project, id, status, commission.StatusPending, reason); err != nil {
		return err
	}
	e.publishStatus(id, commission.StatusPending, reason)
	return nil
}
