package config

import "time"

// Config represents the complete atelier daemon configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	State      StateConfig      `yaml:"state"`
	Workspaces WorkspacesConfig `yaml:"workspaces"`
	Callback   CallbackConfig   `yaml:"callback"`
	Worker     WorkerConfig     `yaml:"worker"`
	Engine     EngineConfig     `yaml:"engine"`
	Projects   []ProjectConfig  `yaml:"projects"`
}

// ServiceConfig defines core daemon settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StateConfig defines where the crash-visibility snapshot database lives and
// how long finalized snapshot rows are kept.
type StateConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention,omitempty"`
}

// WorkspacesConfig defines the working-directory root for dispatched workers.
type WorkspacesConfig struct {
	Dir       string        `yaml:"dir"`
	Retention time.Duration `yaml:"retention,omitempty"`
}

// CallbackConfig defines the worker callback HTTP listener.
type CallbackConfig struct {
	Listen string `yaml:"listen"`
}

// WorkerConfig defines how worker processes are launched and where worker
// packages are discovered.
type WorkerConfig struct {
	// Command is the argv prefix for spawning a worker; the handoff config
	// path is appended as the final argument.
	Command      []string `yaml:"command"`
	PackageRoots []string `yaml:"package_roots,omitempty"`
}

// EngineConfig tunes the lifecycle timers.
type EngineConfig struct {
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`
	GraceWindow        time.Duration `yaml:"grace_window"`
}

// ProjectConfig names a project and the directory its commission artifacts
// live under.
type ProjectConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}
