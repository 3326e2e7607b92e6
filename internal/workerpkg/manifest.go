// Package workerpkg maintains the registry of installed worker packages and
// resolves the worker name a commission asks for to a registered package.
package workerpkg

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the structure of a worker package's worker.yaml file.
type Manifest struct {
	Name        string `yaml:"name"`
	Package     string `yaml:"package"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
}

// Worker is a discovered and validated worker package.
type Worker struct {
	Name        string // worker name commissions refer to
	Package     string // fully qualified package name handed to the spawner
	Version     string
	Description string
	Path        string // absolute path to the package directory
}

// ResolvedWorker is the outcome of a registry lookup. When no package is
// registered for a worker name the bare name is used as the package name;
// the fallback is tolerated, not an error, and Registered makes the branch
// visible to callers.
type ResolvedWorker struct {
	PackageName string
	Registered  bool
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse worker manifest: %w", err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("worker manifest missing name")
	}
	if strings.TrimSpace(m.Package) == "" {
		return nil, fmt.Errorf("worker manifest %q missing package", m.Name)
	}
	return &m, nil
}
