package fov

import (
	"sync"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/oracle"
)

// Candidate is one directory entry the radio substrate (or any other
// caller) offers up for a get_view query: a node id, its coarse kind, and
// whichever geometry identity that kind implies (a ground point for
// GS/IOTDEVICE, a satellite id for SAT).
type Candidate struct {
	NodeID int
	Kind   domain.NodeKind
	Ground oracle.GroundPoint // valid when Kind != NodeSAT
	SatID  int                // valid when Kind == NodeSAT, the oracle-registered satellite id
}

// Directory lists every node a VIEWOFNODE model might be asked about. The
// orchestrator builds one shared Directory per scenario (every node's kind
// plus its ground point or satellite id) and hands it to each fov.Model at
// construction, mirroring the pass-table memo's process-wide shared shape.
type Directory interface {
	Candidates() []Candidate
}

// Viewpoint is the geometry identity of a VIEWOFNODE model's own owner:
// exactly one of Ground or SatID is set.
type Viewpoint struct {
	Ground *oracle.GroundPoint
	SatID  *int
}

// Model is the VIEWOFNODE capability model: it answers "is satellite
// <sat_id> visible from this node's ground point, right now" via its
// Invoke surface, delegating to whichever Strategy the node was configured
// with (elevation-sampled or pass-table). It holds no per-epoch state of its
// own and no-ops on Advance.
type Model struct {
	class      string
	owner      domain.NodeRef
	strategy   Strategy
	viewpoint  Viewpoint
	dir        Directory
	minElevDeg float64
	simEpoch   time.Time // wall-clock instant corresponding to simulated t=0

	mu          sync.Mutex
	lastVisible map[int]bool // candidate node id -> visibility last reported, for pass-start/pass-end edges
}

// NewModel builds a VIEWOFNODE model bound to an owner's viewpoint, a
// visibility strategy, and the scenario-wide node directory (dir may be nil
// for owners that only ever need is_visible, never get_view). className
// distinguishes the two registry entries ("ViewOfNodeElevation",
// "ViewOfNodePassTable") while both share this implementation.
func NewModel(className string, strategy Strategy, viewpoint Viewpoint, dir Directory, minElevDeg float64, simEpoch time.Time) *Model {
	return &Model{class: className, strategy: strategy, viewpoint: viewpoint, dir: dir, minElevDeg: minElevDeg, simEpoch: simEpoch,
		lastVisible: map[int]bool{}}
}

// ClassName implements domain.Model.
func (m *Model) ClassName() string { return m.class }

// Tag implements domain.Model.
func (m *Model) Tag() domain.CapabilityTag { return domain.TagViewOfNode }

// SetOwner implements domain.Model.
func (m *Model) SetOwner(owner domain.NodeRef) { m.owner = owner }

// Advance implements domain.Model; the field-of-view layer is a pure query
// surface with no per-epoch state transition.
func (m *Model) Advance(epochTime float64) error { return nil }

func (m *Model) now() time.Time {
	if m.owner == nil {
		return m.simEpoch
	}
	return m.simEpoch.Add(time.Duration(m.owner.Now() * float64(time.Second)))
}

func (m *Model) visibleFromGround(satID int, g oracle.GroundPoint, t time.Time) (bool, error) {
	return m.strategy.Visible(satID, g, t, m.minElevDeg)
}

// reportTransition emits a pass-start/pass-end LogRecord the first time
// candidateID's visibility flips relative to the last call recorded for it.
func (m *Model) reportTransition(candidateID int, visible bool) {
	m.mu.Lock()
	was, seen := m.lastVisible[candidateID]
	m.lastVisible[candidateID] = visible
	m.mu.Unlock()
	if seen && was == visible {
		return
	}
	if m.owner == nil {
		return
	}
	kind := domain.EventPassEnd
	if visible {
		kind = domain.EventPassStart
	}
	m.owner.Log(domain.LevelInfo, kind, map[string]any{"peer_node": candidateID})
}

// Invoke implements domain.Model. Supported operations:
//
//	is_visible(sat_id int) -> (visible bool)
//	get_view(target_kind string, at_time? float) -> (node_ids []int)
func (m *Model) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "is_visible":
		satID, ierr := args.RequireInt(op, "sat_id")
		if ierr != nil {
			return nil, ierr
		}
		if m.viewpoint.Ground == nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: "owner has no ground viewpoint"}
		}
		visible, err := m.visibleFromGround(int(satID), *m.viewpoint.Ground, m.now())
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		m.reportTransition(int(satID), visible)
		return domain.Args{"visible": domain.BoolValue(visible)}, nil
	case "get_view":
		targetKind, ierr := args.RequireString(op, "target_kind")
		if ierr != nil {
			return nil, ierr
		}
		t := m.now()
		if at, ok := args["at_time"]; ok && at.Float != nil {
			t = m.simEpoch.Add(time.Duration(*at.Float * float64(time.Second)))
		}
		ids, err := m.getView(domain.NodeKind(targetKind), t)
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		return domain.Args{"node_ids": domain.ListValue(intsToValues(ids))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// getView resolves every candidate node of targetKind visible from the
// owner's viewpoint at time t. A ground-viewpoint owner (GS/IOTDEVICE)
// checks satellite candidates against its fixed ground point; a
// satellite-viewpoint owner checks ground-kind candidates against its own
// satellite id; the same mutual-visibility geometry viewed from either
// end.
func (m *Model) getView(targetKind domain.NodeKind, t time.Time) ([]int, error) {
	if m.dir == nil {
		return nil, nil
	}
	var out []int
	for _, c := range m.dir.Candidates() {
		if c.Kind != targetKind {
			continue
		}
		var visible bool
		var err error
		switch {
		case m.viewpoint.Ground != nil && c.Kind == domain.NodeSAT:
			visible, err = m.visibleFromGround(c.SatID, *m.viewpoint.Ground, t)
		case m.viewpoint.SatID != nil && c.Kind != domain.NodeSAT:
			visible, err = m.visibleFromGround(*m.viewpoint.SatID, c.Ground, t)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		m.reportTransition(c.NodeID, visible)
		if visible {
			out = append(out, c.NodeID)
		}
	}
	return out, nil
}

func intsToValues(ids []int) []domain.Value {
	out := make([]domain.Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.IntValue(int64(id)))
	}
	return out
}
