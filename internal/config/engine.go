package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EngineConfig holds process-level engine tuning distinct from the JSON
// Scenario it runs: worker-pool sizing, the default log sink, pass-table
// cache capacity, and the control-plane HTTP bind address.
type EngineConfig struct {
	Manager      ManagerConfig      `toml:"manager"`
	Logging      LoggingConfig      `toml:"logging"`
	FoV          FoVConfig          `toml:"fov"`
	ControlPlane ControlPlaneConfig `toml:"controlplane"`
}

// ManagerConfig controls the epoch scheduler's concurrency mode.
type ManagerConfig struct {
	Parallel   bool `toml:"parallel"`
	MaxWorkers int  `toml:"max_workers"`
}

// LoggingConfig selects and configures the default log Sink.
type LoggingConfig struct {
	Handler     string `toml:"handler"` // "line" or "sqlite"
	SQLitePath  string `toml:"sqlite_path"`
	AsyncBuffer int    `toml:"async_buffer"`
}

// FoVConfig controls the field-of-view pass-table memo.
type FoVConfig struct {
	PassTableCacheSize int `toml:"pass_table_cache_size"`
}

// ControlPlaneConfig controls the runtime control plane's HTTP transport.
type ControlPlaneConfig struct {
	Enabled      bool   `toml:"enabled"`
	BindAddress  string `toml:"bind_address"`
	QueueDepth   int    `toml:"queue_depth"`
	MetricsMount string `toml:"metrics_mount"`
}

// DefaultEngineConfig returns a sensible default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Manager: ManagerConfig{
			Parallel:   false,
			MaxWorkers: 4,
		},
		Logging: LoggingConfig{
			Handler:     "line",
			SQLitePath:  filepath.Join(orbsimHome(), "orbsim.db"),
			AsyncBuffer: 1024,
		},
		FoV: FoVConfig{
			PassTableCacheSize: 4096,
		},
		ControlPlane: ControlPlaneConfig{
			Enabled:      false,
			BindAddress:  "127.0.0.1:9191",
			QueueDepth:   256,
			MetricsMount: "/metrics",
		},
	}
}

// LoadEngineConfig reads engine.toml from path, falling back to defaults
// when the file doesn't exist.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		path = filepath.Join(orbsimHome(), "engine.toml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine config: %w", err)
	}
	return cfg, nil
}

// SaveEngineConfig writes cfg to path as TOML.
func SaveEngineConfig(cfg EngineConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// orbsimHome returns the engine's data directory.
func orbsimHome() string {
	if env := os.Getenv("ORBSIM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".orbsim")
}
