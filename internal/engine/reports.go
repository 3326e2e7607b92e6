package engine

import (
	"context"

	"github.com/atelierhq/atelier/internal/commission"
	"github.com/atelierhq/atelier/internal/events"
)

// The report handlers are the worker-facing callback surface. A worker may
// call back after the daemon has already finalized its commission; unknown
// ids are silently ignored, never an error.

// ReportProgress refreshes the heartbeat, persists the progress string best
// effort, and emits a commission_progress event.
func (e *Engine) ReportProgress(ctx context.Context, id, summary string) {
	if !e.active.touch(id, e.now()) {
		e.logger.Debug("progress report for inactive commission", "commission_id", id)
		return
	}
	ac, ok := e.active.get(id)
	if ok {
		if err := e.store.UpdateCurrentProgress(ctx, ac.Project, id, summary); err != nil {
			e.logger.Warn("failed to persist progress", "commission_id", id, "error", err)
		}
	}
	e.hub.Publish(events.TypeCommissionProgress, events.ProgressPayload{
		ID:      id,
		Summary: summary,
	})
}

// ReportResult marks the result submitted and buffers the summary and
// artifacts on the ActiveCommission; the exit resolver persists them when
// the process terminates. The heartbeat is refreshed as a side effect.
func (e *Engine) ReportResult(ctx context.Context, id, summary string, artifacts []string) {
	if !e.active.setResult(id, summary, artifacts, e.now()) {
		e.logger.Debug("result report for inactive commission", "commission_id", id)
		return
	}
	e.hub.Publish(events.TypeCommissionResult, events.ResultPayload{
		ID:        id,
		Summary:   summary,
		Artifacts: artifacts,
	})
}

// ReportQuestion refreshes the heartbeat and emits a commission_question
// event. Nothing is persisted.
func (e *Engine) ReportQuestion(ctx context.Context, id, question string) {
	if !e.active.touch(id, e.now()) {
		e.logger.Debug("question report for inactive commission", "commission_id", id)
		return
	}
	e.hub.Publish(events.TypeCommissionQuestion, events.QuestionPayload{
		ID:       id,
		Question: question,
	})
}

// AddUserNote appends a caller-supplied note to the commission timeline,
// independent of status or registry membership.
func (e *Engine) AddUserNote(ctx context.Context, id, content string) error {
	project, _, err := e.findProject(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.AppendTimelineEntry(ctx, project, id, "user_note", content, nil); err != nil {
		return &commission.PersistenceError{Op: "timeline", ID: id, Err: err}
	}
	return nil
}
