package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEngineConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadEngineConfig(filepath.Join(t.TempDir(), "engine.toml"))
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	want := DefaultEngineConfig()
	if cfg.Manager != want.Manager || cfg.FoV != want.FoV || cfg.ControlPlane.BindAddress != want.ControlPlane.BindAddress {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestSaveThenLoadEngineConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	cfg := DefaultEngineConfig()
	cfg.Manager.Parallel = true
	cfg.Manager.MaxWorkers = 8
	cfg.ControlPlane.Enabled = true
	cfg.ControlPlane.BindAddress = "0.0.0.0:9000"

	if err := SaveEngineConfig(cfg, path); err != nil {
		t.Fatalf("SaveEngineConfig: %v", err)
	}

	loaded, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if loaded.Manager != cfg.Manager {
		t.Errorf("Manager = %+v, want %+v", loaded.Manager, cfg.Manager)
	}
	if loaded.ControlPlane != cfg.ControlPlane {
		t.Errorf("ControlPlane = %+v, want %+v", loaded.ControlPlane, cfg.ControlPlane)
	}
}

func TestLoadEngineConfigMalformedTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte("not valid toml := ["), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadEngineConfig(path); err == nil {
		t.Fatal("expected error parsing malformed TOML")
	}
}
