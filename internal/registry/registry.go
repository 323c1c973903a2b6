// Package registry implements the Capability Registry: two global-lifetime
// name->factory maps, one for node classes and one for model classes, each
// entry carrying its declared capability tag, supported-owner filter, and
// dependency expression. Lookups fail with structured domain errors.
package registry

import (
	"sync"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/fov"
	"github.com/orbsim/orbsim/internal/oracle"
)

// Deps bundles the shared, scenario-wide infrastructure every node/model
// factory may need: the single process-wide Geometry Oracle, the scenario's
// node Directory (for FoV-gated radio candidate discovery), and the
// simulation's time window. Passing this explicitly (rather than package
// globals) keeps factories testable in isolation.
type Deps struct {
	Oracle    *oracle.Oracle
	Directory fov.Directory
	SimStart  time.Time
	SimEnd    time.Time
	SimDelta  time.Duration
}

// NodeInit is what a node-class factory resolves about its time window; the
// orchestrator folds this into the kernel.Node it builds. Node classes that
// need to register process-wide state (e.g. a satellite's TLE with the
// Oracle) do so as a side effect of the factory call, keyed off
// spec.NodeID.
type NodeInit struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// NodeFactory constructs node-level initialization from a node's parsed
// attribute bag (spec.Extra carries class-specific keys like tle_1/tle_2 or
// ground_lat/ground_lon, forwarded verbatim from the scenario document).
type NodeFactory func(spec domain.NodeSpec, deps Deps) (NodeInit, error)

// ModelFactory constructs a Model implementation from its owning node's spec
// (for node-level context such as ground-point coordinates) and its own
// parsed attribute bag.
type ModelFactory func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps Deps) (domain.Model, error)

// NodeEntry is a registered node-class factory plus its metadata.
type NodeEntry struct {
	Factory NodeFactory
}

// ModelEntry is a registered model-class factory plus its declared metadata.
type ModelEntry struct {
	Factory    ModelFactory
	Tag        domain.CapabilityTag
	Owners     []domain.NodeKind // empty = any owner class
	Dependency domain.DependencyExpr
}

// Registry holds the two global-lifetime name->factory maps.
type Registry struct {
	mu            sync.RWMutex
	nodes         map[string]NodeEntry
	models        map[string]ModelEntry
	lookupFailure func(kind, class string)
}

// New creates an empty Registry. onLookupFailure is invoked for every failed
// lookup (internal/cli wires it to the internal/metrics prometheus counter);
// pass nil to disable.
func New(onLookupFailure func(kind, class string)) *Registry {
	return &Registry{
		nodes:         map[string]NodeEntry{},
		models:        map[string]ModelEntry{},
		lookupFailure: onLookupFailure,
	}
}

// RegisterNodeClass registers a node-class factory. Registration is done
// once at startup.
func (r *Registry) RegisterNodeClass(className string, factory NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[className] = NodeEntry{Factory: factory}
}

// RegisterModelClass registers a model-class factory with its declared
// capability tag, owner filter, and dependency expression.
func (r *Registry) RegisterModelClass(className string, entry ModelEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[className] = entry
}

// LookupNodeClass resolves a node-class factory, failing with a structured
// ConfigError when the class is unknown.
func (r *Registry) LookupNodeClass(className string) (NodeFactory, error) {
	r.mu.RLock()
	entry, ok := r.nodes[className]
	r.mu.RUnlock()
	if !ok {
		r.fail("node", className)
		return nil, &domain.ConfigError{Path: "node.iname", Reason: "unknown node class " + className}
	}
	return entry.Factory, nil
}

// LookupModelClass resolves a model-class entry, failing with a structured
// ConfigError when the class is unknown.
func (r *Registry) LookupModelClass(className string) (ModelEntry, error) {
	r.mu.RLock()
	entry, ok := r.models[className]
	r.mu.RUnlock()
	if !ok {
		r.fail("model", className)
		return ModelEntry{}, &domain.ConfigError{Path: "model.iname", Reason: "unknown model class " + className}
	}
	return entry, nil
}

func (r *Registry) fail(kind, class string) {
	if r.lookupFailure != nil {
		r.lookupFailure(kind, class)
	}
}

// OwnerSupported reports whether the given owner node kind is permitted by
// the entry's declared owner filter (empty filter = any owner).
func (e ModelEntry) OwnerSupported(kind domain.NodeKind) bool {
	if len(e.Owners) == 0 {
		return true
	}
	for _, k := range e.Owners {
		if k == kind {
			return true
		}
	}
	return false
}
