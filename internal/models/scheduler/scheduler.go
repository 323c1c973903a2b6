// Package scheduler supplies the SCHEDULER capability model: a pluggable
// onboard policy layer driving the imaging and power substrates. It uses
// the same interval-gated, lazily-resolved-sibling idiom as the MAC models
// (the TT&C beacon_interval timer is the same shape as this model's
// capture_interval timer).
package scheduler

import (
	"fmt"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// Opportunistic is a fixed-interval onboard scheduler: every
// captureIntervalS of simulated time, if an IMAGING sibling is present and
// the owner's POWER sibling (if any) reports has_energy for the "IMAGING"
// tag, it triggers one capture_image call. It is a thin policy layer over
// siblings it does not own, the same relationship a MAC model has to its
// radio and datastore siblings.
type Opportunistic struct {
	class string
	owner domain.NodeRef

	captureIntervalS float64
	nextCaptureAt    float64
	seq              int64

	imaging domain.Model
	power   domain.Model
	resolved bool
}

// Config carries the model's construction-time parameters.
type Config struct {
	ClassName        string
	CaptureIntervalS float64
}

// NewOpportunistic builds a SCHEDULER model that fires its first capture
// attempt at t=0.
func NewOpportunistic(cfg Config) *Opportunistic {
	return &Opportunistic{class: cfg.ClassName, captureIntervalS: cfg.CaptureIntervalS}
}

// ClassName implements domain.Model.
func (s *Opportunistic) ClassName() string { return s.class }

// Tag implements domain.Model.
func (s *Opportunistic) Tag() domain.CapabilityTag { return domain.TagScheduler }

// SetOwner implements domain.Model.
func (s *Opportunistic) SetOwner(owner domain.NodeRef) { s.owner = owner }

func (s *Opportunistic) resolveSiblings() {
	if s.resolved || s.owner == nil {
		return
	}
	s.imaging, _ = s.owner.HasModelByTag(domain.TagImaging)
	s.power, _ = s.owner.HasModelByTag(domain.TagPower)
	s.resolved = true
}

// hasEnergy consults the optional POWER sibling; absent POWER never blocks
// a capture (the IMAGING model itself enforces its own required POWER
// dependency at the energy-consumption step).
func (s *Opportunistic) hasEnergy() bool {
	if s.power == nil {
		return true
	}
	res, ierr := s.power.Invoke("has_energy", domain.Args{"tag": domain.StringValue("IMAGING")})
	if ierr != nil {
		return true
	}
	return res["has"].Bool == nil || *res["has"].Bool
}

// Advance implements domain.Model: fire one capture_image call on the
// IMAGING sibling whenever the interval timer elapses and energy allows.
func (s *Opportunistic) Advance(epochTime float64) error {
	s.resolveSiblings()
	if s.imaging == nil || epochTime < s.nextCaptureAt {
		return nil
	}
	s.nextCaptureAt = epochTime + s.captureIntervalS
	if !s.hasEnergy() {
		return nil
	}
	s.seq++
	_, _ = s.imaging.Invoke("capture_image", domain.Args{
		"image_id": domain.StringValue(imageID(s.owner, s.seq)),
	})
	return nil
}

func imageID(owner domain.NodeRef, seq int64) string {
	nodeID := 0
	if owner != nil {
		nodeID = owner.ID()
	}
	return fmt.Sprintf("%d-%d", nodeID, seq)
}

// Invoke implements domain.Model. Supported operations:
//
//	get_capture_sequence() -> (seq int)
func (s *Opportunistic) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "get_capture_sequence":
		return domain.Args{"seq": domain.IntValue(s.seq)}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// NewFactory returns a registry.ModelFactory for SCHEDULER, configured from
// the model spec's Extra: capture_interval_s (default 60).
func NewFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		interval := 60.0
		if v, ok := modelSpec.Extra["capture_interval_s"]; ok {
			if f, ok := v.(float64); ok {
				interval = f
			}
		}
		return NewOpportunistic(Config{ClassName: modelSpec.IName, CaptureIntervalS: interval}), nil
	}
}
