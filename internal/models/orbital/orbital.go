// Package orbital supplies the ORBITAL capability model: a thin per-
// satellite wrapper over the Geometry Oracle's position/velocity/sunlight/
// sat-to-sat distance queries. It exists so sibling models (Power's solar
// input depends on in_sunlight) have a natural sibling to query rather than
// reaching into the Oracle directly,
// the same indirection the rest of the simulator uses to keep models
// talking to siblings, not to infrastructure.
package orbital

import (
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/oracle"
	"github.com/orbsim/orbsim/internal/registry"
)

// Model is the ORBITAL capability model. It holds no per-epoch state of its
// own; every operation is a pure query against the Oracle at the owner's
// current simulated time (or an explicit at_time override).
type Model struct {
	class    string
	owner    domain.NodeRef
	satID    int
	oracle   *oracle.Oracle
	simEpoch time.Time
}

// Config carries the model's construction-time parameters.
type Config struct {
	ClassName string
	SatID     int
	Oracle    *oracle.Oracle
	SimEpoch  time.Time
}

// NewModel builds an ORBITAL model bound to one oracle-registered satellite.
func NewModel(cfg Config) *Model {
	return &Model{class: cfg.ClassName, satID: cfg.SatID, oracle: cfg.Oracle, simEpoch: cfg.SimEpoch}
}

// ClassName implements domain.Model.
func (m *Model) ClassName() string { return m.class }

// Tag implements domain.Model.
func (m *Model) Tag() domain.CapabilityTag { return domain.TagOrbital }

// SetOwner implements domain.Model.
func (m *Model) SetOwner(owner domain.NodeRef) { m.owner = owner }

// Advance implements domain.Model; ORBITAL is a pure query surface with no
// per-epoch state transition of its own.
func (m *Model) Advance(epochTime float64) error { return nil }

func (m *Model) now() time.Time {
	if m.owner == nil {
		return m.simEpoch
	}
	return m.simEpoch.Add(time.Duration(m.owner.Now() * float64(time.Second)))
}

func (m *Model) resolveTime(args domain.Args) time.Time {
	if at, ok := args["at_time"]; ok && at.Float != nil {
		return m.simEpoch.Add(time.Duration(*at.Float * float64(time.Second)))
	}
	return m.now()
}

// Invoke implements domain.Model. Supported operations:
//
//	get_position(at_time? float)  -> (x, y, z float)        ECI km
//	get_velocity(at_time? float)  -> (x, y, z float)         ECI km/s
//	in_sunlight(at_time? float)   -> (sunlit bool)
//	distance_to(sat_id int, at_time? float) -> (distance_m float)
func (m *Model) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	t := m.resolveTime(args)
	switch op {
	case "get_position":
		pos, err := m.oracle.Position(m.satID, t)
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		return vectorArgs(pos), nil
	case "get_velocity":
		vel, err := m.oracle.Velocity(m.satID, t)
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		return vectorArgs(vel), nil
	case "in_sunlight":
		sunlit, err := m.oracle.InSunlight(m.satID, t)
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		return domain.Args{"sunlit": domain.BoolValue(sunlit)}, nil
	case "distance_to":
		otherSat, ierr := args.RequireInt(op, "sat_id")
		if ierr != nil {
			return nil, ierr
		}
		d, err := m.oracle.SatDistance(m.satID, int(otherSat), t)
		if err != nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: err.Error()}
		}
		return domain.Args{"distance_m": domain.FloatValue(d)}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

func vectorArgs(v oracle.Vector3) domain.Args {
	return domain.Args{"x": domain.FloatValue(v.X), "y": domain.FloatValue(v.Y), "z": domain.FloatValue(v.Z)}
}

// NewFactory returns a registry.ModelFactory for ORBITAL. The satellite's
// oracle id defaults to its node id, or the node's own "sat_id" Extra key
// when present (the convention the node-class factories use when
// registering TLEs with the Oracle); a "sat_id" key in the model's Extra
// overrides both.
func NewFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		satID := nodeSpec.NodeID
		if v, ok := nodeSpec.Extra["sat_id"]; ok {
			if f, ok := v.(float64); ok {
				satID = int(f)
			}
		}
		if v, ok := modelSpec.Extra["sat_id"]; ok {
			if f, ok := v.(float64); ok {
				satID = int(f)
			}
		}
		return NewModel(Config{ClassName: modelSpec.IName, SatID: satID, Oracle: deps.Oracle, SimEpoch: deps.SimStart}), nil
	}
}
