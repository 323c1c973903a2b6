package domain

// ─── Node/Model Kernel Contracts ────────────────────────────────────────────
// These interfaces define the boundary between the kernel (internal/kernel),
// which owns concrete Node bookkeeping, and the model implementations
// (internal/models/...), which depend only on these contracts:
// infrastructure implements, model code depends on the interface.

// NodeRef is the owner-facing contract a Model uses to discover siblings
// and emit log records. Implemented by internal/kernel.Node.
type NodeRef interface {
	ID() int
	Kind() NodeKind
	LogLevel() LogLevel
	// Now returns the simulated time (seconds since t_start) of the epoch
	// currently being advanced.
	Now() float64
	HasModelByTag(tag CapabilityTag) (Model, bool)
	HasModelByClass(class string) (Model, bool)
	ModelsByTag(tag CapabilityTag) []Model
	Models() []Model
	Log(level LogLevel, kind EventKind, payload map[string]any)
}

// Model is the contract every resident model implements. A Model exposes a
// dynamic named-operation surface (Invoke) and an Advance hook that runs
// once per epoch in dependency order.
type Model interface {
	ClassName() string
	Tag() CapabilityTag
	SetOwner(owner NodeRef)
	// Invoke dispatches a named operation with a keyword-argument bag and
	// returns a result bag or a structured InvocationError.
	Invoke(op string, args Args) (Args, *InvocationError)
	// Advance runs this model's per-epoch behavior. Pure helper models
	// (field-of-view, datastore) may no-op.
	Advance(epochTime float64) error
}

// PeerResolver is implemented by models that declare cross-node peer ids
// (e.g. ISL radios) and need post-construction handles to those nodes,
// resolved by the Orchestrator after all topologies are built.
type PeerResolver interface {
	PeerIDs() []int
	ResolvePeers(peers map[int]NodeRef)
}
