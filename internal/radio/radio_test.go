package radio

import (
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/fov"
	"github.com/orbsim/orbsim/internal/oracle"
)

// fakeNode is a minimal domain.NodeRef backed by a fixed set of sibling
// models, mirroring internal/models/mac's test fakes.
type fakeNode struct {
	id     int
	kind   domain.NodeKind
	clock  float64
	byTag  map[domain.CapabilityTag][]domain.Model
}

func newFakeNode(id int, kind domain.NodeKind) *fakeNode {
	return &fakeNode{id: id, kind: kind, byTag: map[domain.CapabilityTag][]domain.Model{}}
}

func (n *fakeNode) addModel(m domain.Model) { n.byTag[m.Tag()] = append(n.byTag[m.Tag()], m) }

func (n *fakeNode) ID() int                 { return n.id }
func (n *fakeNode) Kind() domain.NodeKind   { return n.kind }
func (n *fakeNode) LogLevel() domain.LogLevel { return domain.LevelAll }
func (n *fakeNode) Now() float64            { return n.clock }
func (n *fakeNode) HasModelByTag(tag domain.CapabilityTag) (domain.Model, bool) {
	list := n.byTag[tag]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}
func (n *fakeNode) HasModelByClass(class string) (domain.Model, bool) { return nil, false }
func (n *fakeNode) ModelsByTag(tag domain.CapabilityTag) []domain.Model { return n.byTag[tag] }
func (n *fakeNode) Models() []domain.Model {
	var out []domain.Model
	for _, list := range n.byTag {
		out = append(out, list...)
	}
	return out
}
func (n *fakeNode) Log(level domain.LogLevel, kind domain.EventKind, payload map[string]any) {}

// fakePropagator places a satellite at a fixed ECI position forever, so
// distance math is deterministic without TLE parsing.
type fakePropagator struct{ pos oracle.Vector3 }

func (p fakePropagator) Position(t time.Time) (oracle.Vector3, error) { return p.pos, nil }
func (p fakePropagator) Velocity(t time.Time) (oracle.Vector3, error) { return oracle.Vector3{}, nil }

// allowPredicate always succeeds; used to isolate queueing/discovery
// behavior from link-budget math.
type allowPredicate struct{}

func (allowPredicate) Evaluate(distanceM, frequencyHz float64, tx, rx PHYParams, interferersBefore int) bool {
	return true
}

// denyAfterPredicate fails once interferersBefore reaches max.
type denyAfterPredicate struct{ max int }

func (p denyAfterPredicate) Evaluate(distanceM, frequencyHz float64, tx, rx PHYParams, interferersBefore int) bool {
	return interferersBefore < p.max
}

func wireISLPair(t *testing.T, simEpoch time.Time) (a, b *Radio, nodeA, nodeB *fakeNode, o *oracle.Oracle) {
	t.Helper()
	o = oracle.New()
	o.RegisterPropagator(1, fakePropagator{pos: oracle.Vector3{X: 0, Y: 0, Z: 0}})
	o.RegisterPropagator(2, fakePropagator{pos: oracle.Vector3{X: 1000, Y: 0, Z: 0}})

	nodeA = newFakeNode(10, domain.NodeSAT)
	nodeB = newFakeNode(20, domain.NodeSAT)

	phy := PHYParams{Frequencies: []float64{2.4e9}, RxQueueCapacity: 2}
	a = NewRadio(Config{ClassName: "ISLRadio", Tag: domain.TagISL, PHY: phy, ISLPeerIDs: []int{20}, Oracle: o, Predicate: allowPredicate{}, SimEpoch: simEpoch})
	b = NewRadio(Config{ClassName: "ISLRadio", Tag: domain.TagISL, PHY: phy, ISLPeerIDs: []int{10}, Oracle: o, Predicate: allowPredicate{}, SimEpoch: simEpoch})
	a.SetOwner(nodeA)
	b.SetOwner(nodeB)
	nodeA.addModel(a)
	nodeB.addModel(b)

	dir := staticDirectory{
		{NodeID: 10, Kind: domain.NodeSAT, SatID: 1},
		{NodeID: 20, Kind: domain.NodeSAT, SatID: 2},
	}
	a.dir = dir
	b.dir = dir

	peers := map[int]domain.NodeRef{10: nodeA, 20: nodeB}
	a.ResolvePeers(peers)
	b.ResolvePeers(peers)
	return
}

type staticDirectory []fov.Candidate

func (d staticDirectory) Candidates() []fov.Candidate { return d }

func TestRadioISLTransmitDelivers(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, _, _, _ := wireISLPair(t, simEpoch)

	res, ierr := a.Invoke("transmit", domain.Args{
		"frequency": domain.FloatValue(2.4e9),
		"packet_id": domain.StringValue("pkt-1"),
		"payload":   domain.Value{Bytes: []byte("hello")},
	})
	if ierr != nil {
		t.Fatalf("transmit: %v", ierr)
	}
	if res["accepted"].Bool == nil || !*res["accepted"].Bool {
		t.Fatalf("expected accepted=true, got %+v", res)
	}

	poll, ierr := b.Invoke("poll_received", domain.Args{"frequency": domain.FloatValue(2.4e9)})
	if ierr != nil {
		t.Fatalf("poll_received: %v", ierr)
	}
	packets := poll["packets"].List
	if len(packets) != 1 {
		t.Fatalf("expected 1 received packet, got %d", len(packets))
	}
	if got := *packets[0].Nested["id"].Str; got != "pkt-1" {
		t.Fatalf("expected packet id pkt-1, got %q", got)
	}

	// a second poll drains nothing further.
	poll2, _ := b.Invoke("poll_received", domain.Args{"frequency": domain.FloatValue(2.4e9)})
	if len(poll2["packets"].List) != 0 {
		t.Fatalf("expected empty second poll, got %d", len(poll2["packets"].List))
	}
}

func TestRadioRejectsWrongFrequency(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _, _, _, _ := wireISLPair(t, simEpoch)

	res, ierr := a.Invoke("transmit", domain.Args{
		"frequency": domain.FloatValue(9e9),
		"packet_id": domain.StringValue("pkt-2"),
		"payload":   domain.Value{Bytes: []byte("x")},
	})
	if ierr != nil {
		t.Fatalf("transmit: %v", ierr)
	}
	if res["accepted"].Bool == nil || *res["accepted"].Bool {
		t.Fatalf("expected accepted=false for unsupported frequency")
	}
}

func TestRadioRxQueueCapacityDrops(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, _, _, _ := wireISLPair(t, simEpoch)
	var dropped []string
	b.onDrop = func(reason string, pkt domain.Packet) { dropped = append(dropped, reason) }

	for i := 0; i < 3; i++ {
		a.Invoke("transmit", domain.Args{
			"frequency": domain.FloatValue(2.4e9),
			"packet_id": domain.StringValue("pkt"),
			"payload":   domain.Value{Bytes: []byte("x")},
		})
	}
	if len(dropped) != 1 || dropped[0] != "queue-full" {
		t.Fatalf("expected one queue-full drop, got %v", dropped)
	}
}

func TestRadioBitsAllowedCap(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, _, _, _ := wireISLPair(t, simEpoch)
	b.phy.BitsAllowedPerEpoch = 1
	var dropped []string
	b.onDrop = func(reason string, pkt domain.Packet) { dropped = append(dropped, reason) }

	for i := 0; i < 2; i++ {
		a.Invoke("transmit", domain.Args{
			"frequency": domain.FloatValue(2.4e9),
			"packet_id": domain.StringValue("pkt"),
			"payload":   domain.Value{Bytes: []byte("x")},
		})
	}
	if len(dropped) != 1 || dropped[0] != "bits-allowed-exceeded" {
		t.Fatalf("expected one bits-allowed-exceeded drop, got %v", dropped)
	}
}

func TestRadioLinkBudgetFailureDrops(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, _, _, _ := wireISLPair(t, simEpoch)
	a.predicate = denyAfterPredicate{max: 0}
	var dropped []string
	b.onDrop = func(reason string, pkt domain.Packet) { dropped = append(dropped, reason) }

	a.Invoke("transmit", domain.Args{
		"frequency": domain.FloatValue(2.4e9),
		"packet_id": domain.StringValue("pkt"),
		"payload":   domain.Value{Bytes: []byte("x")},
	})
	if len(dropped) != 1 || dropped[0] != "link-budget-failed" {
		t.Fatalf("expected link-budget-failed drop, got %v", dropped)
	}
}

// starvedPower rejects every consume_energy draw, simulating a battery
// pinned at its floor.
type starvedPower struct{}

func (starvedPower) ClassName() string         { return "Power" }
func (starvedPower) Tag() domain.CapabilityTag { return domain.TagPower }
func (starvedPower) SetOwner(domain.NodeRef)   {}
func (starvedPower) Advance(float64) error     { return nil }
func (starvedPower) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	if op == "consume_energy" {
		return domain.Args{"accepted": domain.BoolValue(false)}, nil
	}
	return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op}
}

func TestRadioPowerStarvationBlocksTransmit(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, nodeA, _, _ := wireISLPair(t, simEpoch)
	nodeA.addModel(starvedPower{})
	var dropped []string
	a.onDrop = func(reason string, pkt domain.Packet) { dropped = append(dropped, reason) }

	res, ierr := a.Invoke("transmit", domain.Args{
		"frequency": domain.FloatValue(2.4e9),
		"packet_id": domain.StringValue("pkt-starved"),
		"payload":   domain.Value{Bytes: []byte("x")},
	})
	if ierr != nil {
		t.Fatalf("transmit: %v", ierr)
	}
	if res["accepted"].Bool == nil || *res["accepted"].Bool {
		t.Fatal("expected transmit to fail while power-starved")
	}
	if len(dropped) != 1 || dropped[0] != "power-denied" {
		t.Fatalf("expected one power-denied drop, got %v", dropped)
	}
	poll, _ := b.Invoke("poll_received", domain.Args{"frequency": domain.FloatValue(2.4e9)})
	if len(poll["packets"].List) != 0 {
		t.Fatalf("expected nothing delivered while starved, got %d", len(poll["packets"].List))
	}
}

func TestRadioSelfControlledAdvanceDrainsQueue(t *testing.T) {
	simEpoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o := oracle.New()
	o.RegisterPropagator(1, fakePropagator{pos: oracle.Vector3{X: 0, Y: 0, Z: 0}})
	o.RegisterPropagator(2, fakePropagator{pos: oracle.Vector3{X: 10, Y: 0, Z: 0}})

	nodeA := newFakeNode(10, domain.NodeSAT)
	nodeB := newFakeNode(20, domain.NodeSAT)
	phy := PHYParams{Frequencies: []float64{2.4e9}, TxQueueCapacity: 4, RxQueueCapacity: 4}
	a := NewRadio(Config{ClassName: "ISLRadio", Tag: domain.TagISL, PHY: phy, SelfCtrl: true, ISLPeerIDs: []int{20}, Oracle: o, Predicate: allowPredicate{}, SimEpoch: simEpoch})
	b := NewRadio(Config{ClassName: "ISLRadio", Tag: domain.TagISL, PHY: phy, ISLPeerIDs: []int{10}, Oracle: o, Predicate: allowPredicate{}, SimEpoch: simEpoch})
	a.SetOwner(nodeA)
	b.SetOwner(nodeB)
	nodeA.addModel(a)
	nodeB.addModel(b)
	dir := staticDirectory{
		{NodeID: 10, Kind: domain.NodeSAT, SatID: 1},
		{NodeID: 20, Kind: domain.NodeSAT, SatID: 2},
	}
	a.dir, b.dir = dir, dir
	peers := map[int]domain.NodeRef{10: nodeA, 20: nodeB}
	a.ResolvePeers(peers)
	b.ResolvePeers(peers)

	if _, ierr := a.Invoke("add_data", domain.Args{
		"frequency": domain.FloatValue(2.4e9),
		"packet_id": domain.StringValue("queued-1"),
		"payload":   domain.Value{Bytes: []byte("y")},
	}); ierr != nil {
		t.Fatalf("add_data: %v", ierr)
	}
	if err := a.Advance(0); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	poll, _ := b.Invoke("poll_received", domain.Args{"frequency": domain.FloatValue(2.4e9)})
	if len(poll["packets"].List) != 1 {
		t.Fatalf("expected self-controlled radio to deliver its queued packet, got %d", len(poll["packets"].List))
	}
}
