// Package config loads the two on-disk configuration shapes the engine
// consumes: the JSON Scenario description of the simulated world, and the
// process-level TOML EngineConfig governing the engine itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orbsim/orbsim/internal/domain"
)

// LoadScenario reads and parses a scenario JSON file from path.
func LoadScenario(path string) (domain.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Scenario{}, &domain.ConfigError{Path: path, Reason: fmt.Sprintf("read scenario file: %v", err)}
	}
	var scenario domain.Scenario
	if err := json.Unmarshal(raw, &scenario); err != nil {
		return domain.Scenario{}, &domain.ConfigError{Path: path, Reason: fmt.Sprintf("parse scenario json: %v", err)}
	}
	if len(scenario.Topologies) == 0 {
		return domain.Scenario{}, &domain.ConfigError{Path: path, Reason: "scenario declares no topologies"}
	}
	return scenario, nil
}
