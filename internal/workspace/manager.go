// Package workspace manages the ephemeral working directories handed to
// worker processes, one per dispatched commission.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Workdir describes one commission's working directory.
type Workdir struct {
	CommissionID string
	Dir          string
}

// CleanupReport summarizes a cleanup run.
type CleanupReport struct {
	DeletedDirs int
}

// Manager creates and removes per-commission working directories on local
// disk. Directories are ephemeral: recreated on every dispatch and removed
// on finalization.
type Manager struct {
	baseDir string
	now     func() time.Time
}

// NewManager creates a workspace manager rooted at baseDir.
func NewManager(baseDir string) (*Manager, error) {
	trimmed := strings.TrimSpace(baseDir)
	if trimmed == "" {
		return nil, fmt.Errorf("workspace base directory is empty")
	}
	return &Manager{
		baseDir: filepath.Clean(trimmed),
		now:     time.Now,
	}, nil
}

// Create initializes a working directory for id. A leftover directory from
// an earlier dispatch of the same id is replaced.
func (m *Manager) Create(ctx context.Context, id string) (Workdir, error) {
	if err := ctx.Err(); err != nil {
		return Workdir{}, err
	}

	path, err := m.workdirPath(id)
	if err != nil {
		return Workdir{}, err
	}

	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return Workdir{}, fmt.Errorf("create workspace base directory: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return Workdir{}, fmt.Errorf("clear stale workdir for commission %q: %w", id, err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return Workdir{}, fmt.Errorf("create workdir for commission %q: %w", id, err)
	}

	return Workdir{CommissionID: id, Dir: path}, nil
}

// Remove deletes the working directory for id. Missing directories are not
// an error.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := m.workdirPath(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove workdir for commission %q: %w", id, err)
	}
	return nil
}

// Cleanup removes working directories older than olderThan based on
// directory modification time.
func (m *Manager) Cleanup(ctx context.Context, olderThan time.Duration) (CleanupReport, error) {
	if err := ctx.Err(); err != nil {
		return CleanupReport{}, err
	}
	if olderThan <= 0 {
		return CleanupReport{}, fmt.Errorf("olderThan must be positive")
	}

	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return CleanupReport{}, nil
	}
	if err != nil {
		return CleanupReport{}, fmt.Errorf("read workspace base directory: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	report := CleanupReport{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return report, fmt.Errorf("read workspace entry info %q: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(m.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return report, fmt.Errorf("remove workdir %q: %w", entry.Name(), err)
		}
		report.DeletedDirs++
	}

	return report, nil
}

func (m *Manager) workdirPath(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(m.baseDir, id), nil
}

func validateID(id string) error {
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
