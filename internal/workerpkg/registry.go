package workerpkg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const manifestFilename = "worker.yaml"

// Registry holds discovered worker packages indexed by worker name.
type Registry struct {
	workers map[string]*Worker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[string]*Worker),
	}
}

// Get retrieves a worker package by name.
func (r *Registry) Get(name string) (*Worker, bool) {
	w, ok := r.workers[name]
	return w, ok
}

// All returns all registered worker packages.
func (r *Registry) All() map[string]*Worker {
	return r.workers
}

// Add registers a worker package.
func (r *Registry) Add(w *Worker) error {
	if _, exists := r.workers[w.Name]; exists {
		return fmt.Errorf("worker %q already registered", w.Name)
	}
	r.workers[w.Name] = w
	return nil
}

// Resolve maps a worker name to its registered package name. An unregistered
// name falls back to the bare name.
func (r *Registry) Resolve(name string) ResolvedWorker {
	if w, ok := r.workers[name]; ok {
		return ResolvedWorker{PackageName: w.Package, Registered: true}
	}
	return ResolvedWorker{PackageName: name, Registered: false}
}

// Discover scans the given roots for worker.yaml manifests and returns a
// registry of valid worker packages. Invalid manifests are logged through
// logger but are not fatal; duplicate worker names keep the first discovered
// package.
func Discover(roots []string, logger func(level, msg string, args ...any)) (*Registry, error) {
	if logger == nil {
		logger = func(level, msg string, args ...any) {}
	}

	absRoots := make([]string, 0, len(roots))
	seenRoots := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve worker root %q: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("worker root does not exist: %s", absRoot)
			}
			return nil, fmt.Errorf("stat worker root %s: %w", absRoot, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("worker root is not a directory: %s", absRoot)
		}
		if _, ok := seenRoots[absRoot]; ok {
			continue
		}
		seenRoots[absRoot] = struct{}{}
		absRoots = append(absRoots, absRoot)
	}
	if len(absRoots) == 0 {
		return nil, fmt.Errorf("at least one worker root is required")
	}

	registry := NewRegistry()
	for _, root := range absRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || d.Name() != manifestFilename {
				return nil
			}

			pkgDir := filepath.Dir(path)
			worker, err := loadWorker(path, pkgDir)
			if err != nil {
				logger("warn", "failed to load worker package", "root", root, "path", pkgDir, "error", err.Error())
				return nil
			}

			if err := registry.Add(worker); err != nil {
				if existing, ok := registry.Get(worker.Name); ok {
					logger("warn", "duplicate worker ignored (keeping first discovered)",
						"worker", worker.Name, "kept", existing.Path, "ignored", pkgDir)
				}
				return nil
			}
			logger("info", "worker package registered",
				"worker", worker.Name, "package", worker.Package, "version", worker.Version)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan worker root %s: %w", root, err)
		}
	}

	return registry, nil
}

func loadWorker(manifestPath, pkgDir string) (*Worker, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	return &Worker{
		Name:        m.Name,
		Package:     m.Package,
		Version:     m.Version,
		Description: m.Description,
		Path:        pkgDir,
	}, nil
}
