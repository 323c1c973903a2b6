package orbital

import (
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/oracle"
)

type fakePropagator struct{ pos, vel oracle.Vector3 }

func (p fakePropagator) Position(t time.Time) (oracle.Vector3, error) { return p.pos, nil }
func (p fakePropagator) Velocity(t time.Time) (oracle.Vector3, error) { return p.vel, nil }

type fakeNode struct{ clock float64 }

func (n *fakeNode) ID() int                 { return 1 }
func (n *fakeNode) Kind() domain.NodeKind   { return domain.NodeSAT }
func (n *fakeNode) LogLevel() domain.LogLevel { return domain.LevelAll }
func (n *fakeNode) Now() float64            { return n.clock }
func (n *fakeNode) HasModelByTag(tag domain.CapabilityTag) (domain.Model, bool)  { return nil, false }
func (n *fakeNode) HasModelByClass(class string) (domain.Model, bool)            { return nil, false }
func (n *fakeNode) ModelsByTag(tag domain.CapabilityTag) []domain.Model          { return nil }
func (n *fakeNode) Models() []domain.Model                                       { return nil }
func (n *fakeNode) Log(level domain.LogLevel, kind domain.EventKind, payload map[string]any) {}

func TestGetPositionAndVelocity(t *testing.T) {
	o := oracle.New()
	o.RegisterPropagator(1, fakePropagator{pos: oracle.Vector3{X: 1, Y: 2, Z: 3}, vel: oracle.Vector3{X: 4, Y: 5, Z: 6}})
	m := NewModel(Config{ClassName: "Orbital", SatID: 1, Oracle: o, SimEpoch: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	m.SetOwner(&fakeNode{})

	pos, ierr := m.Invoke("get_position", domain.Args{})
	if ierr != nil {
		t.Fatalf("get_position: %v", ierr)
	}
	if *pos["x"].Float != 1 || *pos["y"].Float != 2 || *pos["z"].Float != 3 {
		t.Fatalf("unexpected position: %+v", pos)
	}

	vel, ierr := m.Invoke("get_velocity", domain.Args{})
	if ierr != nil {
		t.Fatalf("get_velocity: %v", ierr)
	}
	if *vel["x"].Float != 4 {
		t.Fatalf("unexpected velocity: %+v", vel)
	}
}

func TestDistanceToSiblingSatellite(t *testing.T) {
	o := oracle.New()
	o.RegisterPropagator(1, fakePropagator{pos: oracle.Vector3{X: 0, Y: 0, Z: 0}})
	o.RegisterPropagator(2, fakePropagator{pos: oracle.Vector3{X: 3, Y: 4, Z: 0}})
	m := NewModel(Config{ClassName: "Orbital", SatID: 1, Oracle: o, SimEpoch: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	m.SetOwner(&fakeNode{})

	res, ierr := m.Invoke("distance_to", domain.Args{"sat_id": domain.IntValue(2)})
	if ierr != nil {
		t.Fatalf("distance_to: %v", ierr)
	}
	// 5 km apart -> 5000 m.
	if got := *res["distance_m"].Float; got != 5000 {
		t.Fatalf("expected 5000 m, got %v", got)
	}
}

func TestUnknownOperation(t *testing.T) {
	o := oracle.New()
	m := NewModel(Config{ClassName: "Orbital", SatID: 1, Oracle: o, SimEpoch: time.Now()})
	_, ierr := m.Invoke("nope", domain.Args{})
	if ierr == nil || ierr.Kind != domain.UnknownOperation {
		t.Fatalf("expected UnknownOperation, got %+v", ierr)
	}
}
