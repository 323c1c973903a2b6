package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDependencyExprSatisfied(t *testing.T) {
	d := DependencyExpr{Clauses: [][]string{
		{"ModelPower"},
		{"ModelFovTimeBased", "ModelFovElevationBased"},
	}}

	tests := []struct {
		name     string
		siblings map[string]bool
		want     bool
	}{
		{"all satisfied via second option", map[string]bool{"ModelPower": true, "ModelFovElevationBased": true}, true},
		{"missing power", map[string]bool{"ModelFovElevationBased": true}, false},
		{"missing fov alternatives", map[string]bool{"ModelPower": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := d.Satisfied(tt.siblings)
			if ok != tt.want {
				t.Errorf("Satisfied() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestEpochCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		end   time.Time
		delta float64
		want  int
	}{
		{start.Add(10 * time.Minute), 1, 601},
		{start, 1, 1},
		{start.Add(-time.Second), 1, 0},
		{start.Add(10 * time.Second), 0, 0},
	}
	for _, tt := range tests {
		if got := EpochCount(start, tt.end, tt.delta); got != tt.want {
			t.Errorf("EpochCount(%v,%v) = %d, want %d", tt.end, tt.delta, got, tt.want)
		}
	}
}

func TestLogLevelEnabled(t *testing.T) {
	if !LevelInfo.Enabled(LevelWarn) {
		t.Error("info floor should allow warn (less verbose)")
	}
	if LevelWarn.Enabled(LevelDebug) {
		t.Error("warn floor should not allow debug (more verbose)")
	}
	if !LevelAll.Enabled(LevelLogic) {
		t.Error("all floor should allow everything")
	}
}

func TestNodeSpecForwardsUnknownKeys(t *testing.T) {
	raw := `{
		"nodeid": 1,
		"type": "SAT",
		"iname": "ModelNodeSatellite",
		"loglevel": "info",
		"tle_1": "1 25544U 98067A   24001.00000000  .00000000  00000-0  00000-0 0  9999",
		"tle_2": "2 25544  51.6400 000.0000 0000000 000.0000 000.0000 15.50000000000000",
		"models": []
	}`
	var spec NodeSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if spec.NodeID != 1 || spec.Type != NodeSAT {
		t.Fatalf("unexpected known fields: %+v", spec)
	}
	if _, ok := spec.Extra["tle_1"]; !ok {
		t.Fatalf("expected tle_1 forwarded into Extra, got %+v", spec.Extra)
	}
}

func TestScenarioTimeRoundTrip(t *testing.T) {
	raw := `"2024-03-01 12:30:00"`
	var st ScenarioTime
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Errorf("round-trip = %s, want %s", out, raw)
	}
}
