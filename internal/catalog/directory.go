// Package catalog wires the concrete node and model classes implemented
// under internal/models/... (plus internal/macqueue and internal/oracle)
// into a registry.Registry, and builds the scenario-wide fov.Directory the
// radio substrate needs to resolve link geometry.
package catalog

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/fov"
	"github.com/orbsim/orbsim/internal/oracle"
)

// staticDirectory is the scenario-wide fov.Directory: one Candidate per
// node, built once from the parsed Scenario before any node is constructed.
type staticDirectory []fov.Candidate

// Candidates implements fov.Directory.
func (d staticDirectory) Candidates() []fov.Candidate { return d }

// BuildDirectory scans every node across every topology and produces the
// Candidate list FoV-gated radios and VIEWOFNODE models consult: a
// satellite id for SAT-kind nodes (its node id, unless overridden by an
// explicit "sat_id" Extra key; the same convention
// internal/models/orbital.NewFactory uses) or a ground point for GS/
// IOTDEVICE nodes (ground_lat/ground_lon/ground_elevation_m, defaulting to
// the equator/prime-meridian/sea-level when a node declares no ground
// point of its own, e.g. a relay-only IoT device).
func BuildDirectory(scenario domain.Scenario) fov.Directory {
	var dir staticDirectory
	for _, topo := range scenario.Topologies {
		for _, node := range topo.Nodes {
			dir = append(dir, candidateFor(node))
		}
	}
	return dir
}

func candidateFor(node domain.NodeSpec) fov.Candidate {
	c := fov.Candidate{NodeID: node.NodeID, Kind: node.Type}
	if node.Type == domain.NodeSAT {
		c.SatID = satIDFor(node)
		return c
	}
	c.Ground = groundPointFor(node)
	return c
}

// satIDFor resolves the oracle-registered satellite id for a SAT node: its
// node id, unless an explicit "sat_id" Extra key overrides it.
func satIDFor(node domain.NodeSpec) int {
	if v, ok := node.Extra["sat_id"]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return node.NodeID
}

// groundPointFor resolves a ground-kind node's fixed location from its
// Extra bag.
func groundPointFor(node domain.NodeSpec) oracle.GroundPoint {
	return oracle.GroundPoint{
		LatDeg: extraFloat(node.Extra, "ground_lat", 0),
		LonDeg: extraFloat(node.Extra, "ground_lon", 0),
		ElevM:  extraFloat(node.Extra, "ground_elevation_m", 0),
	}
}

func extraFloat(extra map[string]any, key string, def float64) float64 {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}
