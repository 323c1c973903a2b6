package domain

import (
	"encoding/json"
	"time"
)

// Scenario is the root of a loaded configuration: a simulation-time window
// with fixed epoch length, a log-sink descriptor, and one or more Topologies.
type Scenario struct {
	Topologies []TopologySpec `json:"topologies"`
	SimTime    SimTimeSpec    `json:"simtime"`
	LogSetup   LogSetupSpec   `json:"simlogsetup"`
}

// SimTimeSpec is the scenario-wide time window and epoch length.
type SimTimeSpec struct {
	StartTime ScenarioTime `json:"starttime"`
	EndTime   ScenarioTime `json:"endtime"`
	Delta     float64      `json:"delta"`
}

// LogSetupSpec names the log handler and forwards handler-specific keys
// verbatim; this repo only contracts on the schema, not the handler set.
type LogSetupSpec struct {
	LogHandler string          `json:"loghandler"`
	Extra      json.RawMessage `json:"-"`
}

// TopologySpec is a named, uniquely identified group of nodes.
type TopologySpec struct {
	Name  string     `json:"name"`
	ID    int        `json:"id"`
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is one node's declaration within a topology.
type NodeSpec struct {
	NodeID    int           `json:"nodeid"`
	Type      NodeKind      `json:"type"`
	IName     string        `json:"iname"`
	LogLevel  LogLevel      `json:"loglevel"`
	StartTime *ScenarioTime `json:"starttime,omitempty"`
	EndTime   *ScenarioTime `json:"endtime,omitempty"`
	Models    []ModelSpec   `json:"models"`
	// Extra carries node-class-specific keys forwarded verbatim to the
	// node's factory (e.g. TLE pair, ground-point lat/lon/elevation).
	Extra map[string]any `json:"-"`
}

// ModelSpec is one model's declaration within a node.
type ModelSpec struct {
	IName string `json:"iname"`
	// Extra carries model-class-specific configuration, forwarded verbatim
	// to the model's factory.
	Extra map[string]any `json:"-"`
}

// ScenarioTime wraps time.Time with the scenario's "YYYY-MM-DD HH:MM:SS"
// wire format (UTC, no timezone in the wire string).
type ScenarioTime struct {
	time.Time
}

const scenarioTimeLayout = "2006-01-02 15:04:05"

// UnmarshalJSON parses the scenario's fixed timestamp layout.
func (t *ScenarioTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(scenarioTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON renders the scenario's fixed timestamp layout.
func (t ScenarioTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(scenarioTimeLayout))
}

// EpochCount returns the number of epochs that a [start,end] window at step
// delta realizes: floor((end-start)/delta) + 1.
func EpochCount(start, end time.Time, delta float64) int {
	if delta <= 0 {
		return 0
	}
	total := end.Sub(start).Seconds()
	if total < 0 {
		return 0
	}
	return int(total/delta) + 1
}
