// Package artifact persists commission records as markdown documents with
// YAML front matter, one document per commission under a project directory.
package artifact

import (
	"context"

	"github.com/atelierhq/atelier/internal/commission"
)

//go:generate mockgen -destination=../engine/mocks/mock_store.go -package=mocks github.com/atelierhq/atelier/internal/artifact Store

// ProjectRef locates one project's artifact tree.
type ProjectRef struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Store is the persistence contract the engine drives. Implementations own
// the commission document exclusively; the engine never writes fields
// directly, only issues these semantic operations.
type Store interface {
	// Create writes a fresh commission document with status pending.
	Create(ctx context.Context, project ProjectRef, id string, spec commission.Spec) error

	// ReadStatus returns the persisted status, or ok=false if the
	// commission does not exist in the project.
	ReadStatus(ctx context.Context, project ProjectRef, id string) (status commission.Status, ok bool, err error)

	// Read returns the full persisted record.
	Read(ctx context.Context, project ProjectRef, id string) (*commission.Record, error)

	// UpdateStatus sets the status field without graph validation. Callers
	// are expected to have validated the edge (or to be the documented
	// redispatch bypass).
	UpdateStatus(ctx context.Context, project ProjectRef, id string, status commission.Status) error

	// AppendTimelineEntry appends one event to the commission history.
	AppendTimelineEntry(ctx context.Context, project ProjectRef, id, event, reason string, extra map[string]string) error

	// UpdateCurrentProgress replaces the current-progress string.
	UpdateCurrentProgress(ctx context.Context, project ProjectRef, id, text string) error

	// UpdateResultSummary replaces the result summary and, when artifacts
	// are given, links each one.
	UpdateResultSummary(ctx context.Context, project ProjectRef, id, text string, artifacts []string) error

	// AddLinkedArtifact links path to the commission. Returns false when
	// the path is already linked.
	AddLinkedArtifact(ctx context.Context, project ProjectRef, id, path string) (bool, error)

	// UpdateSpec mutates the caller-editable fields (prompt, dependencies,
	// resource bounds). Status gating belongs to the engine, not here.
	UpdateSpec(ctx context.Context, project ProjectRef, id string, update commission.Update) error
}
