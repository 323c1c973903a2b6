package domain

import (
	"errors"
	"fmt"
)

// ─── Structured Errors ──────────────────────────────────────────────────────
// Each error variant carries a structured payload and implements error. A
// handful of terminal, context-free conditions remain plain sentinel values
// for errors.Is checks.

// ConfigError reports a malformed scenario, an unknown class name, or a
// missing required key.
type ConfigError struct {
	Path   string // dotted location within the scenario document
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error at %s: %s", e.Path, e.Reason)
}

// UnsupportedOwnerError reports a model attached to a node class outside its
// declared supported_node_classes filter.
type UnsupportedOwnerError struct {
	NodeID      int
	OwnerClass  NodeKind
	ModelClass  string
	Supported   []NodeKind
}

func (e *UnsupportedOwnerError) Error() string {
	return fmt.Sprintf("node %d: model class %q does not support owner class %q (supports %v)",
		e.NodeID, e.ModelClass, e.OwnerClass, e.Supported)
}

// UnsatisfiedDependencyError reports a model whose dependency expression has
// a clause with no satisfying sibling.
type UnsatisfiedDependencyError struct {
	NodeID     int
	ModelClass string
	Clause     []string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("node %d: model %q has unsatisfied dependency clause %v",
		e.NodeID, e.ModelClass, e.Clause)
}

// CyclicDependencyError reports a cycle detected while topologically
// sorting a node's resident models.
type CyclicDependencyError struct {
	NodeID int
	Cycle  []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("node %d: cyclic model dependency: %v", e.NodeID, e.Cycle)
}

// InvocationErrorKind enumerates the permitted InvocationError variants.
type InvocationErrorKind string

const (
	UnknownOperation   InvocationErrorKind = "UnknownOperation"
	MissingArgument    InvocationErrorKind = "MissingArgument"
	InvalidArgument    InvocationErrorKind = "InvalidArgument"
	PreconditionFailed InvocationErrorKind = "PreconditionFailed"
)

// InvocationError is returned by Model.Invoke for runtime model-to-model
// operation calls.
type InvocationError struct {
	Kind      InvocationErrorKind
	Operation string
	Detail    string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %s: %s", e.Operation, e.Kind, e.Detail)
}

// GeometryError reports a non-fatal TLE propagation failure for a single
// satellite at a single epoch; the caller logs and skips that epoch.
type GeometryError struct {
	SatelliteID int
	Reason      string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error for satellite %d: %s", e.SatelliteID, e.Reason)
}

// DuplicateRadioBandError reports two sibling radio models on one node
// sharing both capability tag and frequency band, which the orchestrator
// forbids. Unwraps to ErrDuplicateRadioBand for errors.Is checks.
type DuplicateRadioBandError struct {
	NodeID    int
	Tag       CapabilityTag
	Frequency float64
}

func (e *DuplicateRadioBandError) Error() string {
	return fmt.Sprintf("node %d: duplicate radio tag %q at frequency %g", e.NodeID, e.Tag, e.Frequency)
}

func (e *DuplicateRadioBandError) Unwrap() error { return ErrDuplicateRadioBand }

// FatalRuntimeError reports an invariant violation the Manager detects mid-
// run (e.g. an epoch's simulated time failing to advance monotonically).
// Unlike the per-node construction errors above, this always aborts a
// scenario already in progress.
type FatalRuntimeError struct {
	Topology string
	Epoch    int
	Reason   string
}

func (e *FatalRuntimeError) Error() string {
	return fmt.Sprintf("fatal runtime error in topology %q at epoch %d: %s", e.Topology, e.Epoch, e.Reason)
}

func (e *FatalRuntimeError) Unwrap() error { return ErrFatalRuntimeInvariant }

// ─── Sentinel errors ────────────────────────────────────────────────────────
// ResourceExhausted conditions are recovered locally (drop + log) and never
// surfaced as Go errors; only the two genuinely terminal conditions below
// need errors.Is-style identity.

var (
	// ErrFatalRuntimeInvariant signals an invariant violation (e.g.
	// non-monotonic simulated time) that aborts the Manager.
	ErrFatalRuntimeInvariant = errors.New("fatal runtime invariant violated")

	// ErrDuplicateRadioBand signals that two radio models on one node share
	// both capability tag and frequency band.
	ErrDuplicateRadioBand = errors.New("duplicate radio tag+frequency on node")
)
