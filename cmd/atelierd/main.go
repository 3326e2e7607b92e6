package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atelierhq/atelier/internal/artifact"
	"github.com/atelierhq/atelier/internal/callback"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/engine"
	"github.com/atelierhq/atelier/internal/lock"
	"github.com/atelierhq/atelier/internal/log"
	"github.com/atelierhq/atelier/internal/proc"
	"github.com/atelierhq/atelier/internal/snapshot"
	"github.com/atelierhq/atelier/internal/storage"
	"github.com/atelierhq/atelier/internal/workerpkg"
	"github.com/atelierhq/atelier/internal/workspace"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "config":
		os.Exit(runConfigCheck(args))
	case "version":
		fmt.Printf("atelierd version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`atelierd - commission session daemon

Usage:
  atelierd <command> [flags]

Commands:
  start         Start the daemon in foreground
  config check  Validate the configuration file
  version       Show version information
  help          Show this help message
`)
}

func runConfigCheck(args []string) int {
	if len(args) < 1 || args[0] != "check" {
		fmt.Fprintln(os.Stderr, "Usage: atelierd config check --config <path>")
		return 1
	}
	fs := flag.NewFlagSet("config check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: atelierd config check --config <path>")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
		return 1
	}
	fp, err := config.Fingerprint(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
		return 1
	}

	fmt.Printf("Config OK: %d project(s), fingerprint %s\n", len(cfg.Projects), fp)
	return 0
}

// pidLockPath derives the lock file location from the state database path:
// state.db becomes state.pid in the same directory.
func pidLockPath(statePath string) string {
	return strings.TrimSuffix(statePath, filepath.Ext(statePath)) + ".pid"
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: atelierd start --config <path>")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")

	fp, err := config.Fingerprint(*configPath)
	if err != nil {
		logger.Warn("failed to fingerprint config", "error", err)
	}
	logger.Info("atelierd starting", "version", version, "config", *configPath, "fingerprint", fp)

	lockPath := pidLockPath(cfg.State.Path)
	pidLock, err := lock.Acquire(lockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", lockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", lockPath)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open state database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("state database opened", "path", cfg.State.Path)

	snapshots := snapshot.NewStore(db)
	if n, err := snapshots.Prune(ctx, cfg.State.Retention); err != nil {
		logger.Warn("snapshot prune failed", "error", err)
	} else if n > 0 {
		logger.Info("pruned finalized snapshots", "count", n)
	}

	workers := workerpkg.NewRegistry()
	if len(cfg.Worker.PackageRoots) > 0 {
		workers, err = workerpkg.Discover(cfg.Worker.PackageRoots, func(level, msg string, args ...any) {
			switch level {
			case "debug":
				logger.Debug(msg, args...)
			case "warn":
				logger.Warn(msg, args...)
			case "error":
				logger.Error(msg, args...)
			default:
				logger.Info(msg, args...)
			}
		})
		if err != nil {
			logger.Error("worker package discovery failed", "roots", cfg.Worker.PackageRoots, "error", err)
			return 1
		}
	} else {
		logger.Warn("no worker package roots configured, all workers resolve to bare names")
	}
	logger.Info("worker package discovery complete", "count", len(workers.All()))

	workspaces, err := workspace.NewManager(cfg.Workspaces.Dir)
	if err != nil {
		logger.Error("failed to initialize workspace manager", "dir", cfg.Workspaces.Dir, "error", err)
		return 1
	}
	if report, err := workspaces.Cleanup(ctx, cfg.Workspaces.Retention); err != nil {
		logger.Warn("stale workspace cleanup failed", "error", err)
	} else if report.DeletedDirs > 0 {
		logger.Info("removed stale workspaces", "count", report.DeletedDirs)
	}

	spawner, err := proc.NewExecSpawner(cfg.Worker.Command)
	if err != nil {
		logger.Error("invalid worker command", "error", err)
		return 1
	}

	projects := make([]artifact.ProjectRef, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects = append(projects, artifact.ProjectRef{Name: p.Name, Path: p.Path})
		logger.Info("project registered", "name", p.Name, "path", p.Path)
	}

	// Bind before constructing the engine: every dispatched worker gets the
	// resolved callback address in its handoff file.
	srv := callback.New(callback.Config{Listen: cfg.Callback.Listen}, nil)
	if err := srv.Bind(); err != nil {
		logger.Error("failed to bind callback listener", "listen", cfg.Callback.Listen, "error", err)
		return 1
	}

	eng := engine.New(artifact.NewFSStore(), projects, spawner, workers, workspaces, snapshots, nil, engine.Options{
		HeartbeatInterval:  cfg.Engine.HeartbeatInterval,
		StalenessThreshold: cfg.Engine.StalenessThreshold,
		GraceWindow:        cfg.Engine.GraceWindow,
		CallbackAddr:       srv.Addr(),
	})
	defer eng.Close()
	srv.SetReporter(eng)

	eng.StartHeartbeatMonitor()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(runCtx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("callback server: %w", err)
		}
	}()

	logger.Info("atelierd started", "callback_addr", srv.Addr())

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("atelierd stopped")
	return 0
}
