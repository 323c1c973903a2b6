// Package compute supplies the COMPUTE capability model: a bounded FIFO of
// onboard processing tasks, each occupying the model for its declared
// duration before completing, one task in flight at a time. It follows
// macqueue.Queue's bounded-FIFO shape, generalized to carry a per-task
// duration instead of treating every enqueued item as instantaneous.
package compute

import (
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// task is one queued unit of onboard compute work.
type task struct {
	id        string
	payload   []byte
	durationS float64
}

// Model is the COMPUTE capability model.
type Model struct {
	class    string
	owner    domain.NodeRef
	deltaSec float64

	mu        sync.Mutex
	capacity  int
	pending   []task
	current   *task
	remaining float64
	completed []string
	onDrop    func(reason string, taskID string)
}

// Config carries the model's construction-time parameters.
type Config struct {
	ClassName string
	Capacity  int // 0 = unbounded
	DeltaSec  float64
	OnDrop    func(reason string, taskID string)
}

// NewModel builds a COMPUTE model with an empty task queue.
func NewModel(cfg Config) *Model {
	return &Model{class: cfg.ClassName, capacity: cfg.Capacity, deltaSec: cfg.DeltaSec, onDrop: cfg.OnDrop}
}

// ClassName implements domain.Model.
func (m *Model) ClassName() string { return m.class }

// Tag implements domain.Model.
func (m *Model) Tag() domain.CapabilityTag { return domain.TagCompute }

// SetOwner implements domain.Model.
func (m *Model) SetOwner(owner domain.NodeRef) { m.owner = owner }

// Advance implements domain.Model: if no task is in progress, pull the head
// of the pending queue; otherwise spend this epoch's delta against the
// in-progress task's remaining duration, completing it once remaining drops
// to zero or below.
func (m *Model) Advance(epochTime float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		if len(m.pending) == 0 {
			return nil
		}
		t := m.pending[0]
		m.pending = m.pending[1:]
		m.current = &t
		m.remaining = t.durationS
	}
	m.remaining -= m.deltaSec
	if m.remaining <= 0 {
		completedID := m.current.id
		m.completed = append(m.completed, completedID)
		m.current = nil
		if m.owner != nil {
			m.owner.Log(domain.LevelInfo, domain.EventComputeCompleted, map[string]any{"task_id": completedID})
		}
	}
	return nil
}

// Invoke implements domain.Model. Supported operations:
//
//	enqueue_task(task_id string, payload bytes, duration_s float) -> (accepted bool)
//	get_queue_size()                                               -> (size int)
//	poll_completed()                                               -> (task_ids []string)
func (m *Model) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "enqueue_task":
		taskID, ierr := args.RequireString(op, "task_id")
		if ierr != nil {
			return nil, ierr
		}
		duration := args.OptionalFloat("duration_s", 0)
		accepted := m.enqueue(task{id: taskID, payload: args["payload"].Bytes, durationS: duration})
		return domain.Args{"accepted": domain.BoolValue(accepted)}, nil
	case "get_queue_size":
		return domain.Args{"size": domain.IntValue(int64(m.queueSize()))}, nil
	case "poll_completed":
		return domain.Args{"task_ids": domain.ListValue(stringsToValues(m.drainCompleted()))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

func (m *Model) enqueue(t task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	depth := len(m.pending)
	if m.current != nil {
		depth++
	}
	if m.capacity > 0 && depth >= m.capacity {
		if m.onDrop != nil {
			m.onDrop("queue-full", t.id)
		}
		return false
	}
	m.pending = append(m.pending, t)
	if m.owner != nil {
		m.owner.Log(domain.LevelDebug, domain.EventComputeEnqueued, map[string]any{"task_id": t.id, "duration_s": t.durationS})
	}
	return true
}

// queueSize reports the total depth including any task in progress, so
// repeated polling sees a monotone or bounded-oscillation depth.
func (m *Model) queueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.pending)
	if m.current != nil {
		n++
	}
	return n
}

func (m *Model) drainCompleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.completed
	m.completed = nil
	return out
}

func stringsToValues(ss []string) []domain.Value {
	out := make([]domain.Value, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.StringValue(s))
	}
	return out
}

// NewFactory returns a registry.ModelFactory for COMPUTE, configured from
// the model spec's Extra: capacity (0 = unbounded).
func NewFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		capacity := 0
		if v, ok := modelSpec.Extra["capacity"]; ok {
			if f, ok := v.(float64); ok {
				capacity = int(f)
			}
		}
		return NewModel(Config{ClassName: modelSpec.IName, Capacity: capacity, DeltaSec: deps.SimDelta.Seconds()}), nil
	}
}
