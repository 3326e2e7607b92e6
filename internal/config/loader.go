// Package config loads and validates the atelier daemon's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and parses configuration from a file, applies defaults, and
// validates the result.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		// Directory provided - look for config.yaml inside
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "atelier"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "info"
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = "json"
	}
	if cfg.Callback.Listen == "" {
		cfg.Callback.Listen = "127.0.0.1:0"
	}
	if cfg.Workspaces.Retention <= 0 {
		cfg.Workspaces.Retention = 24 * time.Hour
	}
	if cfg.State.Retention <= 0 {
		cfg.State.Retention = 7 * 24 * time.Hour
	}
	if cfg.Engine.HeartbeatInterval <= 0 {
		cfg.Engine.HeartbeatInterval = 30 * time.Second
	}
	if cfg.Engine.StalenessThreshold <= 0 {
		cfg.Engine.StalenessThreshold = 180 * time.Second
	}
	if cfg.Engine.GraceWindow <= 0 {
		cfg.Engine.GraceWindow = 30 * time.Second
	}
}

func validate(cfg *Config) error {
	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	if cfg.Workspaces.Dir == "" {
		return fmt.Errorf("workspaces.dir is required")
	}
	if len(cfg.Worker.Command) == 0 {
		return fmt.Errorf("worker.command is required")
	}
	if len(cfg.Projects) == 0 {
		return fmt.Errorf("at least one project is required")
	}

	switch cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("service.log_level must be one of debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	switch cfg.Service.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Engine.StalenessThreshold <= cfg.Engine.HeartbeatInterval {
		return fmt.Errorf("engine.staleness_threshold (%s) must exceed engine.heartbeat_interval (%s)",
			cfg.Engine.StalenessThreshold, cfg.Engine.HeartbeatInterval)
	}

	seen := make(map[string]bool, len(cfg.Projects))
	for i, p := range cfg.Projects {
		if p.Name == "" {
			return fmt.Errorf("projects[%d]: name is required", i)
		}
		if p.Path == "" {
			return fmt.Errorf("projects[%d] (%s): path is required", i, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate project name %q", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}
