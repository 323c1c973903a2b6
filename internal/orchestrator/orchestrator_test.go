package orchestrator

import (
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

type fakeModel struct {
	class string
	tag   domain.CapabilityTag
	owner domain.NodeRef
}

func (m *fakeModel) ClassName() string         { return m.class }
func (m *fakeModel) Tag() domain.CapabilityTag { return m.tag }
func (m *fakeModel) SetOwner(o domain.NodeRef) { m.owner = o }
func (m *fakeModel) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	return nil, nil
}
func (m *fakeModel) Advance(epochTime float64) error { return nil }

// recordingModel appends its class name to a shared log on every Advance,
// so a test can observe a node's execution order.
type recordingModel struct {
	fakeModel
	log *[]string
}

func (m *recordingModel) Advance(epochTime float64) error {
	*m.log = append(*m.log, m.class)
	return nil
}

func testScenario(nodeClass string, modelIName ...string) domain.Scenario {
	models := make([]domain.ModelSpec, len(modelIName))
	for i, name := range modelIName {
		models[i] = domain.ModelSpec{IName: name}
	}
	start := domain.ScenarioTime{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	end := domain.ScenarioTime{Time: start.Time.Add(time.Hour)}
	return domain.Scenario{
		SimTime: domain.SimTimeSpec{StartTime: start, EndTime: end, Delta: 60},
		Topologies: []domain.TopologySpec{
			{
				Name: "t1", ID: 1,
				Nodes: []domain.NodeSpec{
					{NodeID: 1, Type: domain.NodeSAT, IName: nodeClass, LogLevel: domain.LevelInfo, Models: models},
				},
			},
		},
	}
}

func newRegistry() *registry.Registry {
	reg := registry.New(nil)
	reg.RegisterNodeClass("Satellite", func(spec domain.NodeSpec, deps registry.Deps) (registry.NodeInit, error) {
		return registry.NodeInit{}, nil
	})
	return reg
}

func TestBuildSimpleNodeNoModels(t *testing.T) {
	reg := newRegistry()
	scenario := testScenario("Satellite")
	result, err := Build(scenario, reg, registry.Deps{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Topologies) != 1 || len(result.Topologies[0].Nodes) != 1 {
		t.Fatalf("unexpected topology shape: %+v", result.Topologies)
	}
}

func TestBuildUnknownNodeClassIsConfigError(t *testing.T) {
	reg := registry.New(nil)
	scenario := testScenario("DoesNotExist")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.ConfigError); !ok {
		t.Fatalf("expected *domain.ConfigError, got %T: %v", err, err)
	}
}

func TestBuildUnsupportedOwnerClass(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("GroundOnlyModel", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeModel{class: m.IName}, nil
		},
		Owners: []domain.NodeKind{domain.NodeGS},
	})
	scenario := testScenario("Satellite", "GroundOnlyModel")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.UnsupportedOwnerError); !ok {
		t.Fatalf("expected *domain.UnsupportedOwnerError, got %T: %v", err, err)
	}
}

func TestBuildUnsatisfiedDependency(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("NeedsPower", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeModel{class: m.IName}, nil
		},
		Dependency: domain.DependencyExpr{Clauses: [][]string{{"Battery"}}},
	})
	scenario := testScenario("Satellite", "NeedsPower")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.UnsatisfiedDependencyError); !ok {
		t.Fatalf("expected *domain.UnsatisfiedDependencyError, got %T: %v", err, err)
	}
}

func TestBuildOrdersModelsByDependency(t *testing.T) {
	var order []string
	reg := newRegistry()
	reg.RegisterModelClass("Battery", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &recordingModel{fakeModel: fakeModel{class: m.IName}, log: &order}, nil
		},
	})
	reg.RegisterModelClass("NeedsPower", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &recordingModel{fakeModel: fakeModel{class: m.IName}, log: &order}, nil
		},
		Dependency: domain.DependencyExpr{Clauses: [][]string{{"Battery"}}},
	})
	// Declared out of dependency order to verify the sort actually moves it.
	scenario := testScenario("Satellite", "NeedsPower", "Battery")
	result, err := Build(scenario, reg, registry.Deps{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	node := result.Topologies[0].Nodes[0]
	first, ok := node.HasModelByClass("Battery")
	if !ok {
		t.Fatal("Battery model missing")
	}
	_ = first
	if err := node.Advance(0); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(order) != 2 || order[0] != "Battery" || order[1] != "NeedsPower" {
		t.Fatalf("execution order = %v, want [Battery NeedsPower]", order)
	}
}

type fakeRadioModel struct {
	fakeModel
	frequencies []float64
	wildcard    bool
}

func (m *fakeRadioModel) FrequencyBand() ([]float64, bool) { return m.frequencies, m.wildcard }

func TestBuildDuplicateRadioBandSameFrequencyRejected(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("RadioA", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagBasicLoRa}, frequencies: []float64{915e6}}, nil
		},
	})
	reg.RegisterModelClass("RadioB", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagBasicLoRa}, frequencies: []float64{915e6}}, nil
		},
	})
	scenario := testScenario("Satellite", "RadioA", "RadioB")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.DuplicateRadioBandError); !ok {
		t.Fatalf("expected *domain.DuplicateRadioBandError, got %T: %v", err, err)
	}
}

func TestBuildDistinctRadioFrequenciesAllowed(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("RadioA", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagBasicLoRa}, frequencies: []float64{915e6}}, nil
		},
	})
	reg.RegisterModelClass("RadioB", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagBasicLoRa}, frequencies: []float64{868e6}}, nil
		},
	})
	scenario := testScenario("Satellite", "RadioA", "RadioB")
	if _, err := Build(scenario, reg, registry.Deps{}, nil); err != nil {
		t.Fatalf("expected distinct-frequency radios to coexist, got %v", err)
	}
}

func TestBuildWildcardRadioConflictsWithAnyFrequency(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("RadioA", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagISL}, wildcard: true}, nil
		},
	})
	reg.RegisterModelClass("RadioB", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeRadioModel{fakeModel: fakeModel{class: m.IName, tag: domain.TagISL}, frequencies: []float64{2.4e9}}, nil
		},
	})
	scenario := testScenario("Satellite", "RadioA", "RadioB")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.DuplicateRadioBandError); !ok {
		t.Fatalf("expected *domain.DuplicateRadioBandError for wildcard collision, got %T: %v", err, err)
	}
}

func TestBuildCyclicDependency(t *testing.T) {
	reg := newRegistry()
	reg.RegisterModelClass("A", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeModel{class: "A"}, nil
		},
		Dependency: domain.DependencyExpr{Clauses: [][]string{{"B"}}},
	})
	reg.RegisterModelClass("B", registry.ModelEntry{
		Factory: func(n domain.NodeSpec, m domain.ModelSpec, d registry.Deps) (domain.Model, error) {
			return &fakeModel{class: "B"}, nil
		},
		Dependency: domain.DependencyExpr{Clauses: [][]string{{"A"}}},
	})
	scenario := testScenario("Satellite", "A", "B")
	_, err := Build(scenario, reg, registry.Deps{}, nil)
	if _, ok := err.(*domain.CyclicDependencyError); !ok {
		t.Fatalf("expected *domain.CyclicDependencyError, got %T: %v", err, err)
	}
}
