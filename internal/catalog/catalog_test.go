package catalog

import (
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/oracle"
	"github.com/orbsim/orbsim/internal/orchestrator"
	"github.com/orbsim/orbsim/internal/registry"
)

const issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
const issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

func buildTestScenario() domain.Scenario {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	return domain.Scenario{
		SimTime: domain.SimTimeSpec{
			StartTime: domain.ScenarioTime{Time: start},
			EndTime:   domain.ScenarioTime{Time: end},
			Delta:     60,
		},
		Topologies: []domain.TopologySpec{
			{
				Name: "main",
				ID:   1,
				Nodes: []domain.NodeSpec{
					{
						NodeID: 1, Type: domain.NodeSAT, IName: NodeClassSatellite,
						Extra: map[string]any{"tle_1": issLine1, "tle_2": issLine2},
						Models: []domain.ModelSpec{
							{IName: ModelClassOrbital, Extra: map[string]any{}},
							{IName: ModelClassPower, Extra: map[string]any{"max_capacity_j": 1000.0, "initial_capacity_j": 500.0, "solar_watts": 10.0}},
							{IName: ModelClassDatastore, Extra: map[string]any{}},
							{IName: ModelClassBasicLoRaRadio, Extra: map[string]any{"frequencies": []any{868.0e6}}},
							{IName: ModelClassTTCSatelliteMAC, Extra: map[string]any{"beacon_frequency": 868.0e6, "downlink_frequency": 868.0e6}},
						},
					},
					{
						NodeID: 2, Type: domain.NodeGS, IName: NodeClassGroundStation,
						Extra: map[string]any{"ground_lat": 40.0, "ground_lon": -105.0},
						Models: []domain.ModelSpec{
							{IName: ModelClassDatastore, Extra: map[string]any{}},
							{IName: ModelClassBasicLoRaRadio, Extra: map[string]any{"frequencies": []any{868.0e6}}},
							{IName: ModelClassGroundStationMAC, Extra: map[string]any{"beacon_frequency": 868.0e6, "downlink_frequency": 868.0e6, "num_packets": 1.0}},
						},
					},
				},
			},
		},
	}
}

func TestRegisterBuildsEveryClassSuccessfully(t *testing.T) {
	reg := registry.New(nil)
	Register(reg)

	scenario := buildTestScenario()
	dir := BuildDirectory(scenario)

	deps := registry.Deps{
		Oracle:    oracle.New(),
		Directory: dir,
		SimStart:  scenario.SimTime.StartTime.Time,
		SimEnd:    scenario.SimTime.EndTime.Time,
		SimDelta:  time.Duration(scenario.SimTime.Delta) * time.Second,
	}

	result, err := orchestrator.Build(scenario, reg, deps, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Topologies) != 1 || len(result.Topologies[0].Nodes) != 2 {
		t.Fatalf("unexpected topology shape: %+v", result.Topologies)
	}

	epochs := domain.EpochCount(scenario.SimTime.StartTime.Time, scenario.SimTime.EndTime.Time, scenario.SimTime.Delta)
	for e := 0; e < epochs; e++ {
		epochTime := float64(e) * scenario.SimTime.Delta
		for _, node := range result.Topologies[0].Nodes {
			if err := node.Advance(epochTime); err != nil {
				t.Fatalf("advance node %d at epoch %d: %v", node.ID(), e, err)
			}
		}
	}
}

// A node that declares ModelImagingLogicBased without a ModelPower sibling
// must fail orchestration with UnsatisfiedDependency before any epoch runs.
func TestImagingWithoutPowerIsUnsatisfiedDependency(t *testing.T) {
	reg := registry.New(nil)
	Register(reg)

	scenario := buildTestScenario()
	sat := &scenario.Topologies[0].Nodes[0]
	// buildTestScenario's satellite already carries a Power model, so this
	// node must start from a fresh, Power-less model list rather than
	// appending onto it.
	sat.Models = []domain.ModelSpec{
		{IName: ModelClassOrbital, Extra: map[string]any{}},
		{IName: ModelClassImagingLogicBased, Extra: map[string]any{}},
	}

	dir := BuildDirectory(scenario)
	deps := registry.Deps{
		Oracle:    oracle.New(),
		Directory: dir,
		SimStart:  scenario.SimTime.StartTime.Time,
		SimEnd:    scenario.SimTime.EndTime.Time,
		SimDelta:  time.Duration(scenario.SimTime.Delta) * time.Second,
	}

	_, err := orchestrator.Build(scenario, reg, deps, nil)
	if _, ok := err.(*domain.UnsatisfiedDependencyError); !ok {
		t.Fatalf("expected *domain.UnsatisfiedDependencyError, got %T: %v", err, err)
	}
}

// TestImagingWithPowerCaptures builds the same node with a ModelPower
// sibling present and confirms a capture_image call succeeds and the image
// lands in the relay queue.
func TestImagingWithPowerCaptures(t *testing.T) {
	reg := registry.New(nil)
	Register(reg)

	scenario := buildTestScenario()
	sat := &scenario.Topologies[0].Nodes[0]
	sat.Models = append(sat.Models,
		domain.ModelSpec{IName: ModelClassADACS, Extra: map[string]any{}},
		domain.ModelSpec{IName: ModelClassDatastoreRelay, Extra: map[string]any{}},
		domain.ModelSpec{IName: ModelClassImagingLogicBased, Extra: map[string]any{"energy_per_capture_j": 5.0, "image_size_bytes": 1024.0}},
	)

	dir := BuildDirectory(scenario)
	deps := registry.Deps{
		Oracle:    oracle.New(),
		Directory: dir,
		SimStart:  scenario.SimTime.StartTime.Time,
		SimEnd:    scenario.SimTime.EndTime.Time,
		SimDelta:  time.Duration(scenario.SimTime.Delta) * time.Second,
	}

	result, err := orchestrator.Build(scenario, reg, deps, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	node := result.Topologies[0].Nodes[0]
	imagingModel, ok := node.HasModelByClass(ModelClassImagingLogicBased)
	if !ok {
		t.Fatal("imaging model missing")
	}
	res, ierr := imagingModel.Invoke("capture_image", domain.Args{"image_id": domain.StringValue("img-1")})
	if ierr != nil {
		t.Fatalf("capture_image: %v", ierr)
	}
	if res["captured"].Bool == nil || !*res["captured"].Bool {
		t.Fatalf("expected capture to succeed, got %+v", res)
	}

	relay, ok := node.HasModelByClass(ModelClassDatastoreRelay)
	if !ok {
		t.Fatal("relay model missing")
	}
	sizeRes, ierr := relay.Invoke("get_queue_size", domain.Args{})
	if ierr != nil {
		t.Fatalf("get_queue_size: %v", ierr)
	}
	if sizeRes["size"].Int == nil || *sizeRes["size"].Int != 1 {
		t.Fatalf("expected 1 relayed image, got %+v", sizeRes)
	}
}

func TestBuildDirectoryResolvesSatAndGroundCandidates(t *testing.T) {
	scenario := buildTestScenario()
	dir := BuildDirectory(scenario)
	candidates := dir.Candidates()
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	var sawSat, sawGround bool
	for _, c := range candidates {
		switch c.Kind {
		case domain.NodeSAT:
			sawSat = true
			if c.SatID != 1 {
				t.Errorf("expected sat id 1, got %d", c.SatID)
			}
		case domain.NodeGS:
			sawGround = true
			if c.Ground.LatDeg != 40.0 || c.Ground.LonDeg != -105.0 {
				t.Errorf("unexpected ground point: %+v", c.Ground)
			}
		}
	}
	if !sawSat || !sawGround {
		t.Fatalf("expected both a SAT and a GS candidate, got %+v", candidates)
	}
}
