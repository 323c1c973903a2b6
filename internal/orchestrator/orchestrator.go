// Package orchestrator builds the live node graph from a parsed Scenario:
// for every declared node, resolve its class factory, resolve and validate
// each resident model against its owner-class filter, check CNF dependency
// satisfaction against siblings, topologically sort the residents into an
// execution order, and, once every topology is built, resolve
// cross-topology peer references (inter-satellite links).
package orchestrator

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/kernel"
	"github.com/orbsim/orbsim/internal/registry"
)

// Topology is one built, ready-to-advance group of nodes, in declaration
// order.
type Topology struct {
	Name  string
	ID    int
	Nodes []*kernel.Node
}

// Result is the fully built node graph for a scenario.
type Result struct {
	Topologies []Topology
	NodesByID  map[int]*kernel.Node
}

// Build runs the five-step construction algorithm over every topology in
// the scenario.
func Build(scenario domain.Scenario, reg *registry.Registry, deps registry.Deps, sink func(domain.LogRecord)) (*Result, error) {
	result := &Result{NodesByID: map[int]*kernel.Node{}}
	var peerResolvers []domain.PeerResolver

	for _, topoSpec := range scenario.Topologies {
		topo := Topology{Name: topoSpec.Name, ID: topoSpec.ID}
		for _, nodeSpec := range topoSpec.Nodes {
			node, resolvers, err := buildNode(nodeSpec, scenario, reg, deps, sink)
			if err != nil {
				return nil, err
			}
			topo.Nodes = append(topo.Nodes, node)
			result.NodesByID[nodeSpec.NodeID] = node
			peerResolvers = append(peerResolvers, resolvers...)
		}
		result.Topologies = append(result.Topologies, topo)
	}

	// Step 5: cross-node peer resolution, deferred until every topology has
	// been built so inter-satellite/ground-station links can reference
	// nodes from any topology.
	peers := make(map[int]domain.NodeRef, len(result.NodesByID))
	for id, n := range result.NodesByID {
		peers[id] = n
	}
	for _, r := range peerResolvers {
		r.ResolvePeers(peers)
	}

	return result, nil
}

// buildNode runs steps 1-4 for a single node: factory resolution, model
// resolution/validation/instantiation, CNF dependency satisfaction, and
// topological ordering.
func buildNode(nodeSpec domain.NodeSpec, scenario domain.Scenario, reg *registry.Registry, deps registry.Deps, sink func(domain.LogRecord)) (*kernel.Node, []domain.PeerResolver, error) {
	// Step 1: resolve node factory and instantiate with its time window.
	nodeFactory, err := reg.LookupNodeClass(nodeSpec.IName)
	if err != nil {
		return nil, nil, err
	}
	nodeInit, err := nodeFactory(nodeSpec, deps)
	if err != nil {
		return nil, nil, err
	}

	// Step 2: resolve, validate, and instantiate each resident model.
	models := make([]domain.Model, 0, len(nodeSpec.Models))
	entries := make([]registry.ModelEntry, 0, len(nodeSpec.Models))
	classNames := make([]string, 0, len(nodeSpec.Models))
	for _, modelSpec := range nodeSpec.Models {
		entry, err := reg.LookupModelClass(modelSpec.IName)
		if err != nil {
			return nil, nil, err
		}
		if !entry.OwnerSupported(nodeSpec.Type) {
			return nil, nil, &domain.UnsupportedOwnerError{
				NodeID: nodeSpec.NodeID, OwnerClass: nodeSpec.Type,
				ModelClass: modelSpec.IName, Supported: entry.Owners,
			}
		}
		model, err := entry.Factory(nodeSpec, modelSpec, deps)
		if err != nil {
			return nil, nil, err
		}
		models = append(models, model)
		entries = append(entries, entry)
		classNames = append(classNames, modelSpec.IName)
	}

	if err := checkDuplicateRadioBands(nodeSpec.NodeID, models); err != nil {
		return nil, nil, err
	}

	// Step 3: CNF dependency satisfaction against sibling class names.
	siblingClasses := make(map[string]bool, len(classNames))
	for _, c := range classNames {
		siblingClasses[c] = true
	}
	before := make(map[string][]string, len(classNames))
	for i, entry := range entries {
		ok, clause := entry.Dependency.Satisfied(siblingClasses)
		if !ok {
			return nil, nil, &domain.UnsatisfiedDependencyError{
				NodeID: nodeSpec.NodeID, ModelClass: classNames[i], Clause: clause,
			}
		}
		for _, clause := range entry.Dependency.Clauses {
			for _, candidate := range clause {
				if siblingClasses[candidate] && candidate != classNames[i] {
					before[classNames[i]] = append(before[classNames[i]], candidate)
				}
			}
		}
	}

	// Step 4: Kahn's-algorithm topological sort with declaration-order
	// tie-break; a non-empty cycle means the dependency graph (built only
	// from present siblings, so it cannot come from an unsatisfied clause)
	// has a genuine cycle.
	order, cycle := kernel.KahnToposort(classNames, before)
	if cycle != nil {
		return nil, nil, &domain.CyclicDependencyError{NodeID: nodeSpec.NodeID, Cycle: cycle}
	}
	classIndex := make(map[string]int, len(classNames))
	for i, c := range classNames {
		classIndex[c] = i
	}
	executionOrder := make([]int, 0, len(order))
	for _, c := range order {
		executionOrder = append(executionOrder, classIndex[c])
	}

	cfg := kernel.Config{
		ID:           nodeSpec.NodeID,
		Kind:         nodeSpec.Type,
		LogLevel:     nodeSpec.LogLevel,
		StartTime:    nodeInit.StartTime,
		EndTime:      nodeInit.EndTime,
		SimEpochWall: scenario.SimTime.StartTime.Time,
		Sink:         sink,
	}
	node := kernel.NewNode(cfg, models, executionOrder)

	var resolvers []domain.PeerResolver
	for _, m := range models {
		if r, ok := m.(domain.PeerResolver); ok {
			resolvers = append(resolvers, r)
		}
	}
	return node, resolvers, nil
}

// frequencyBander is implemented by radio models (internal/radio.Radio) to
// report their configured frequency set, so the Orchestrator can enforce
// (tag, frequency-band) uniqueness across a node's resident radios: two
// sibling radios may not share a capability tag and an overlapping
// frequency.
type frequencyBander interface {
	FrequencyBand() (frequencies []float64, wildcard bool)
}

// radioBand is one resident radio's frequency coverage, keyed by tag for the
// duplicate-band check.
type radioBand struct {
	frequencies []float64
	wildcard    bool
}

// checkDuplicateRadioBands rejects a node whose resident models include two
// radios of the same capability tag with overlapping (or wildcard) frequency
// coverage; such a pair would make transmit()/poll_received() ambiguous
// about which sibling radio a frame belongs to.
func checkDuplicateRadioBands(nodeID int, models []domain.Model) error {
	byTag := map[domain.CapabilityTag][]radioBand{}
	for _, m := range models {
		fb, ok := m.(frequencyBander)
		if !ok {
			continue
		}
		freqs, wildcard := fb.FrequencyBand()
		byTag[m.Tag()] = append(byTag[m.Tag()], radioBand{frequencies: freqs, wildcard: wildcard})
	}
	for tag, bands := range byTag {
		for i := 0; i < len(bands); i++ {
			for j := i + 1; j < len(bands); j++ {
				if shared, overlap := bandsOverlap(bands[i], bands[j]); overlap {
					return &domain.DuplicateRadioBandError{NodeID: nodeID, Tag: tag, Frequency: shared}
				}
			}
		}
	}
	return nil
}

// bandsOverlap reports whether two radio bands of the same tag would
// collide, and if so, one representative shared frequency (0 for an
// all-wildcard collision).
func bandsOverlap(a, b radioBand) (float64, bool) {
	if a.wildcard && b.wildcard {
		return 0, true
	}
	if a.wildcard {
		if len(b.frequencies) == 0 {
			return 0, true
		}
		return b.frequencies[0], true
	}
	if b.wildcard {
		if len(a.frequencies) == 0 {
			return 0, true
		}
		return a.frequencies[0], true
	}
	for _, f := range a.frequencies {
		for _, g := range b.frequencies {
			if f == g {
				return f, true
			}
		}
	}
	return 0, false
}
