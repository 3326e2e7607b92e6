// Package handoff defines the worker-config document the daemon writes to a
// commission's working directory before spawning, and which the worker
// process reads at startup.
package handoff

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/atelierhq/atelier/internal/commission"
)

// Version is the current worker-config document version.
const Version = 1

// ConfigFilename is the name of the handoff file inside the workdir.
const ConfigFilename = "commission-config.json"

// WorkerConfig is the structured handoff record.
type WorkerConfig struct {
	Version       int               `json:"version"`
	CommissionID  string            `json:"commission_id"`
	ProjectName   string            `json:"project_name"`
	ProjectPath   string            `json:"project_path"`
	WorkerPackage string            `json:"worker_package"`
	Prompt        string            `json:"prompt"`
	DependsOn     []string          `json:"depends_on,omitempty"`
	WorkDir       string            `json:"work_dir"`
	CallbackAddr  string            `json:"callback_addr"`
	Bounds        commission.Bounds `json:"bounds,omitzero"`
}

// Encode serializes cfg as JSON to w.
func Encode(w io.Writer, cfg *WorkerConfig) error {
	if cfg.Version != Version {
		return fmt.Errorf("unsupported worker-config version: %d", cfg.Version)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode worker config: %w", err)
	}
	return nil
}

// Decode reads and validates a WorkerConfig from r. Unknown fields are
// rejected so version drift between daemon and worker surfaces early.
func Decode(r io.Reader) (*WorkerConfig, error) {
	var cfg WorkerConfig
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode worker config: %w", err)
	}
	if cfg.Version != Version {
		return nil, fmt.Errorf("unsupported worker-config version: %d", cfg.Version)
	}
	if cfg.CommissionID == "" {
		return nil, fmt.Errorf("worker config missing commission_id")
	}
	if cfg.WorkerPackage == "" {
		return nil, fmt.Errorf("worker config missing worker_package")
	}
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("worker config missing work_dir")
	}
	return &cfg, nil
}

// WriteFile writes cfg into workDir and returns the file path together with
// a blake3 checksum of the written bytes.
func WriteFile(workDir string, cfg *WorkerConfig) (path string, checksum string, err error) {
	path = filepath.Join(workDir, ConfigFilename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", "", fmt.Errorf("create worker config file: %w", err)
	}

	hasher := blake3.New()
	if err := Encode(io.MultiWriter(f, hasher), cfg); err != nil {
		_ = f.Close()
		return "", "", err
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("close worker config file: %w", err)
	}

	return path, fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// ReadFile loads and validates a handoff file.
func ReadFile(path string) (*WorkerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open worker config file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
