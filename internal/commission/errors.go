package commission

import (
	"fmt"
	"strings"
)

// NotFoundError reports an unknown commission id or project.
type NotFoundError struct {
	Kind string // "commission", "project", "active commission"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidStateError reports an operation attempted from a status that
// forbids it. The message carries both the current and the required status.
type InvalidStateError struct {
	ID       string
	Op       string
	Current  Status
	Required []Status
}

func (e *InvalidStateError) Error() string {
	req := make([]string, 0, len(e.Required))
	for _, s := range e.Required {
		req = append(req, string(s))
	}
	return fmt.Sprintf("cannot %s commission %q: status is %q, requires %s",
		e.Op, e.ID, e.Current, strings.Join(req, " or "))
}

// InvalidTransitionError reports a lifecycle edge rejected by the state
// machine. The message lists the allowed targets, or "terminal state" when
// the source has none.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid transition %s -> %s: %q is a terminal state", e.From, e.To, e.From)
	}
	targets := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		targets = append(targets, string(s))
	}
	return fmt.Sprintf("invalid transition %s -> %s: allowed targets from %q are %s",
		e.From, e.To, e.From, strings.Join(targets, ", "))
}

// SpawnError reports that a worker process could not be created.
type SpawnError struct {
	Worker string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn worker %q: %v", e.Worker, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// PersistenceError reports an artifact write that failed after a state
// decision was made. The on-disk state must be treated as unknown.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s for commission %q: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
