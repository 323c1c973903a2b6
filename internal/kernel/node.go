package kernel

import (
	"time"

	"github.com/orbsim/orbsim/internal/domain"
)

// Node is the concrete implementation of domain.NodeRef: it owns an ordered
// (already topologically sorted) list of resident models and the simulated
// clock state needed to answer Now() during an Advance call.
type Node struct {
	id        int
	kind      domain.NodeKind
	logLevel  domain.LogLevel
	startTime *time.Time // nil = active from t_start
	endTime   *time.Time // nil = active through t_end

	models       []domain.Model // declaration order
	order        []int          // indices into models, in execution order
	byClass      map[string]domain.Model
	byTag        map[domain.CapabilityTag][]domain.Model
	now          float64
	sink         func(domain.LogRecord)
	simEpochWall time.Time // wall-clock instant corresponding to simulated t=0
}

// Config bundles the construction-time parameters for a Node, mirroring the
// fields of domain.NodeSpec that the kernel itself must act on.
type Config struct {
	ID           int
	Kind         domain.NodeKind
	LogLevel     domain.LogLevel
	StartTime    *time.Time
	EndTime      *time.Time
	SimEpochWall time.Time
	Sink         func(domain.LogRecord)
}

// NewNode builds a Node with its models already resolved and validated by
// the orchestrator. executionOrder gives the indices into models in the
// order Advance must invoke them (the output of KahnToposort mapped back to
// indices).
func NewNode(cfg Config, models []domain.Model, executionOrder []int) *Node {
	n := &Node{
		id:           cfg.ID,
		kind:         cfg.Kind,
		logLevel:     cfg.LogLevel,
		startTime:    cfg.StartTime,
		endTime:      cfg.EndTime,
		models:       models,
		order:        executionOrder,
		byClass:      make(map[string]domain.Model, len(models)),
		byTag:        make(map[domain.CapabilityTag][]domain.Model),
		sink:         cfg.Sink,
		simEpochWall: cfg.SimEpochWall,
	}
	for _, m := range models {
		n.byClass[m.ClassName()] = m
		n.byTag[m.Tag()] = append(n.byTag[m.Tag()], m)
	}
	for _, m := range models {
		m.SetOwner(n)
	}
	return n
}

// ID implements domain.NodeRef.
func (n *Node) ID() int { return n.id }

// Kind implements domain.NodeRef.
func (n *Node) Kind() domain.NodeKind { return n.kind }

// LogLevel implements domain.NodeRef.
func (n *Node) LogLevel() domain.LogLevel { return n.logLevel }

// Now implements domain.NodeRef: the simulated time, in seconds since
// t_start, of the epoch currently being advanced.
func (n *Node) Now() float64 { return n.now }

// HasModelByTag implements domain.NodeRef, returning the first resident
// model with the given tag.
func (n *Node) HasModelByTag(tag domain.CapabilityTag) (domain.Model, bool) {
	ms := n.byTag[tag]
	if len(ms) == 0 {
		return nil, false
	}
	return ms[0], true
}

// HasModelByClass implements domain.NodeRef.
func (n *Node) HasModelByClass(class string) (domain.Model, bool) {
	m, ok := n.byClass[class]
	return m, ok
}

// ModelsByTag implements domain.NodeRef, returning every resident model
// advertising the given tag.
func (n *Node) ModelsByTag(tag domain.CapabilityTag) []domain.Model {
	return n.byTag[tag]
}

// Models implements domain.NodeRef, returning residents in declaration
// order.
func (n *Node) Models() []domain.Model {
	out := make([]domain.Model, len(n.models))
	copy(out, n.models)
	return out
}

// Log implements domain.NodeRef, forwarding to the configured sink filtered
// by the node's configured log level.
func (n *Node) Log(level domain.LogLevel, kind domain.EventKind, payload map[string]any) {
	if n.sink == nil || !n.logLevel.Enabled(level) {
		return
	}
	n.sink(domain.LogRecord{SimTime: n.now, NodeID: n.id, Level: level, EventKind: kind, Payload: payload})
}

// Active reports whether the node is inside its configured [start,end] time
// window at simulated time epochTime (seconds since t_start), given the
// wall-clock instant corresponding to t=0.
func (n *Node) Active(epochTime float64) bool {
	wall := n.simEpochWall.Add(time.Duration(epochTime * float64(time.Second)))
	if n.startTime != nil && wall.Before(*n.startTime) {
		return false
	}
	if n.endTime != nil && wall.After(*n.endTime) {
		return false
	}
	return true
}

// Advance runs every resident model's Advance hook once, in the node's
// precomputed dependency order. It is a no-op (but still updates Now())
// when the node is outside its active time window: inactive nodes don't
// tick their models but remain resolvable as link-fabric candidates.
func (n *Node) Advance(epochTime float64) error {
	n.now = epochTime
	if !n.Active(epochTime) {
		return nil
	}
	for _, idx := range n.order {
		if err := n.models[idx].Advance(epochTime); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceToEnd steps the node in isolation from t0 to t1 at the given delta,
// useful for single-node testing without a full Manager/Orchestrator setup.
func (n *Node) AdvanceToEnd(t0, t1, delta float64) error {
	for t := t0; t <= t1; t += delta {
		if err := n.Advance(t); err != nil {
			return err
		}
	}
	return nil
}
