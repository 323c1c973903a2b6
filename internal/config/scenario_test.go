package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orbsim/orbsim/internal/domain"
)

const sampleScenario = `{
  "simtime": {"starttime": "2026-01-01 00:00:00", "endtime": "2026-01-01 00:10:00", "delta": 60},
  "simlogsetup": {"loghandler": "line"},
  "topologies": [
    {
      "name": "t1",
      "id": 1,
      "nodes": [
        {"nodeid": 1, "type": "GS", "iname": "GroundStation", "loglevel": "INFO", "models": []}
      ]
    }
  ]
}`

func writeTempScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp scenario: %v", err)
	}
	return path
}

func TestLoadScenarioParsesTopologiesAndTime(t *testing.T) {
	path := writeTempScenario(t, sampleScenario)
	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if len(scenario.Topologies) != 1 || scenario.Topologies[0].Name != "t1" {
		t.Fatalf("unexpected topologies: %+v", scenario.Topologies)
	}
	if scenario.SimTime.Delta != 60 {
		t.Errorf("delta = %v, want 60", scenario.SimTime.Delta)
	}
	if scenario.LogSetup.LogHandler != "line" {
		t.Errorf("log handler = %q, want %q", scenario.LogSetup.LogHandler, "line")
	}
}

func TestLoadScenarioMissingFileIsConfigError(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var cfgErr *domain.ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Fatalf("expected *domain.ConfigError, got %T: %v", err, err)
	}
}

func TestLoadScenarioMalformedJSONIsConfigError(t *testing.T) {
	path := writeTempScenario(t, "{not json")
	_, err := LoadScenario(path)
	var cfgErr *domain.ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Fatalf("expected *domain.ConfigError, got %T: %v", err, err)
	}
}

func TestLoadScenarioNoTopologiesIsConfigError(t *testing.T) {
	path := writeTempScenario(t, `{"simtime": {"starttime": "2026-01-01 00:00:00", "endtime": "2026-01-01 00:10:00", "delta": 60}, "simlogsetup": {"loghandler": "line"}, "topologies": []}`)
	_, err := LoadScenario(path)
	var cfgErr *domain.ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Fatalf("expected *domain.ConfigError, got %T: %v", err, err)
	}
}

func asConfigError(err error, target **domain.ConfigError) bool {
	ce, ok := err.(*domain.ConfigError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
