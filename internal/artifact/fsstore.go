package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atelierhq/atelier/internal/commission"
)

const (
	commissionsDirName  = "commissions"
	frontMatterDelim    = "---"
	documentPermissions = 0o644
)

// frontMatter is the YAML header of a commission document. The prompt lives
// in the markdown body below it.
type frontMatter struct {
	ID            string                     `yaml:"id"`
	Status        commission.Status          `yaml:"status"`
	Worker        string                     `yaml:"worker"`
	DependsOn     []string                   `yaml:"depends_on,omitempty"`
	MaxTurns      int                        `yaml:"max_turns,omitempty"`
	MaxSpend      float64                    `yaml:"max_spend,omitempty"`
	Progress      string                     `yaml:"progress,omitempty"`
	ResultSummary string                     `yaml:"result_summary,omitempty"`
	Artifacts     []string                   `yaml:"artifacts,omitempty"`
	Timeline      []commission.TimelineEntry `yaml:"timeline,omitempty"`
}

// FSStore persists commission documents under
// <project.Path>/commissions/<id>.md.
type FSStore struct {
	now func() time.Time
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates a filesystem-backed artifact store.
func NewFSStore() *FSStore {
	return &FSStore{now: time.Now}
}

func (s *FSStore) documentPath(project ProjectRef, id string) (string, error) {
	if err := validateCommissionID(id); err != nil {
		return "", err
	}
	if strings.TrimSpace(project.Path) == "" {
		return "", fmt.Errorf("project %q has no path", project.Name)
	}
	return filepath.Join(project.Path, commissionsDirName, id+".md"), nil
}

// Create writes a fresh commission document with status pending and a
// status_pending timeline entry.
func (s *FSStore) Create(ctx context.Context, project ProjectRef, id string, spec commission.Spec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.documentPath(project, id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("commission %q already exists in project %q", id, project.Name)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat commission document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create commissions directory: %w", err)
	}

	fm := frontMatter{
		ID:        id,
		Status:    commission.StatusPending,
		Worker:    spec.Worker,
		DependsOn: spec.DependsOn,
		MaxTurns:  spec.Bounds.MaxTurns,
		MaxSpend:  spec.Bounds.MaxSpend,
		Timeline: []commission.TimelineEntry{{
			Event:  "status_pending",
			Reason: "commission created",
			At:     s.now().UTC(),
		}},
	}
	return writeDocument(path, fm, spec.Prompt)
}

// ReadStatus returns the persisted status, or ok=false when the document
// does not exist.
func (s *FSStore) ReadStatus(ctx context.Context, project ProjectRef, id string) (commission.Status, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path, err := s.documentPath(project, id)
	if err != nil {
		return "", false, err
	}
	fm, _, err := readDocument(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return fm.Status, true, nil
}

// Read returns the full persisted record, prompt included.
func (s *FSStore) Read(ctx context.Context, project ProjectRef, id string) (*commission.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.documentPath(project, id)
	if err != nil {
		return nil, err
	}
	fm, body, err := readDocument(path)
	if os.IsNotExist(err) {
		return nil, &commission.NotFoundError{Kind: "commission", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &commission.Record{
		ID:            fm.ID,
		Status:        fm.Status,
		Worker:        fm.Worker,
		DependsOn:     fm.DependsOn,
		Bounds:        commission.Bounds{MaxTurns: fm.MaxTurns, MaxSpend: fm.MaxSpend},
		Prompt:        body,
		Timeline:      fm.Timeline,
		Progress:      fm.Progress,
		ResultSummary: fm.ResultSummary,
		Artifacts:     fm.Artifacts,
	}, nil
}

// UpdateStatus sets the status field. No graph validation happens here.
func (s *FSStore) UpdateStatus(ctx context.Context, project ProjectRef, id string, status commission.Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	return s.mutate(ctx, project, id, func(fm *frontMatter) error {
		fm.Status = status
		return nil
	})
}

// AppendTimelineEntry appends one event to the commission history.
func (s *FSStore) AppendTimelineEntry(ctx context.Context, project ProjectRef, id, event, reason string, extra map[string]string) error {
	return s.mutate(ctx, project, id, func(fm *frontMatter) error {
		fm.Timeline = append(fm.Timeline, commission.TimelineEntry{
			Event:  event,
			Reason: reason,
			At:     s.now().UTC(),
			Extra:  extra,
		})
		return nil
	})
}

// UpdateCurrentProgress replaces the current-progress string.
func (s *FSStore) UpdateCurrentProgress(ctx context.Context, project ProjectRef, id, text string) error {
	return s.mutate(ctx, project, id, func(fm *frontMatter) error {
		fm.Progress = text
		return nil
	})
}

// UpdateResultSummary replaces the result summary and links any artifacts.
func (s *FSStore) UpdateResultSummary(ctx context.Context, project ProjectRef, id, text string, artifacts []string) error {
	return s.mutate(ctx, project, id, func(fm *frontMatter) error {
		fm.ResultSummary = text
		for _, a := range artifacts {
			if !containsString(fm.Artifacts, a) {
				fm.Artifacts = append(fm.Artifacts, a)
			}
		}
		return nil
	})
}

// AddLinkedArtifact links path to the commission, returning false when the
// path is already linked.
func (s *FSStore) AddLinkedArtifact(ctx context.Context, project ProjectRef, id, path string) (bool, error) {
	added := false
	err := s.mutate(ctx, project, id, func(fm *frontMatter) error {
		if containsString(fm.Artifacts, path) {
			return nil
		}
		fm.Artifacts = append(fm.Artifacts, path)
		added = true
		return nil
	})
	return added, err
}

// UpdateSpec mutates the caller-editable fields.
func (s *FSStore) UpdateSpec(ctx context.Context, project ProjectRef, id string, update commission.Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.documentPath(project, id)
	if err != nil {
		return err
	}
	fm, body, err := readDocument(path)
	if os.IsNotExist(err) {
		return &commission.NotFoundError{Kind: "commission", ID: id}
	}
	if err != nil {
		return err
	}
	if update.Prompt != nil {
		body = *update.Prompt
	}
	if update.DependsOn != nil {
		fm.DependsOn = *update.DependsOn
	}
	if update.Bounds != nil {
		fm.MaxTurns = update.Bounds.MaxTurns
		fm.MaxSpend = update.Bounds.MaxSpend
	}
	return writeDocument(path, fm, body)
}

// mutate reads the document, applies fn to the front matter, and rewrites
// the document atomically, preserving the body.
func (s *FSStore) mutate(ctx context.Context, project ProjectRef, id string, fn func(*frontMatter) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.documentPath(project, id)
	if err != nil {
		return err
	}
	fm, body, err := readDocument(path)
	if os.IsNotExist(err) {
		return &commission.NotFoundError{Kind: "commission", ID: id}
	}
	if err != nil {
		return err
	}
	if err := fn(&fm); err != nil {
		return err
	}
	return writeDocument(path, fm, body)
}

func readDocument(path string) (frontMatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return frontMatter{}, "", err
	}
	header, body, err := splitFrontMatter(data)
	if err != nil {
		return frontMatter{}, "", fmt.Errorf("parse commission document %q: %w", path, err)
	}
	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return frontMatter{}, "", fmt.Errorf("decode front matter of %q: %w", path, err)
	}
	return fm, body, nil
}

// writeDocument renders and writes the document via a temp file + rename so
// readers never observe a half-written record.
func writeDocument(path string, fm frontMatter, body string) error {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(header)
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(body)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), documentPermissions); err != nil {
		return fmt.Errorf("write commission document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace commission document: %w", err)
	}
	return nil
}

func splitFrontMatter(data []byte) (header []byte, body string, err error) {
	text := string(data)
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return nil, "", fmt.Errorf("document does not start with front matter")
	}
	rest := text[len(frontMatterDelim)+1:]
	idx := strings.Index(rest, "\n"+frontMatterDelim+"\n")
	if idx < 0 {
		// Front matter may close at EOF with no body.
		if strings.HasSuffix(rest, "\n"+frontMatterDelim) {
			return []byte(rest[:len(rest)-len(frontMatterDelim)-1]), "", nil
		}
		return nil, "", fmt.Errorf("unterminated front matter")
	}
	header = []byte(rest[:idx+1])
	body = rest[idx+len(frontMatterDelim)+2:]
	return header, body, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func validateCommissionID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("commission id is empty")
	}
	if trimmed == "." || trimmed == ".." {
		return fmt.Errorf("commission id %q is invalid", id)
	}
	if strings.Contains(trimmed, "/") || strings.Contains(trimmed, `\`) {
		return fmt.Errorf("commission id %q must not contain path separators", id)
	}
	if filepath.Clean(trimmed) != trimmed {
		return fmt.Errorf("commission id %q is invalid", id)
	}
	return nil
}
