// Package imaging supplies the ADACS, IMAGING, and DATASTORE-relay
// capability models: attitude pointing, onboard image capture, and the
// captured-image buffer a downlink later drains. ADACS plays the same
// pure-query-sibling role for Imaging that Orbital plays for Power.
package imaging

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// ADACS is the attitude-determination-and-control capability model: a
// slew-and-settle pointing state machine. Concrete imaging models consult
// it (when present) before a capture to gate on IsSettled.
type ADACS struct {
	class string
	owner domain.NodeRef

	slewRateDegS float64

	targetDeg  float64
	currentDeg float64
	settled    bool
}

// ADACSConfig carries ADACS's construction-time parameters.
type ADACSConfig struct {
	ClassName    string
	SlewRateDegS float64 // degrees of attitude change settled per epoch-second; 0 = instantaneous
}

// NewADACS builds an ADACS model pointed at 0 degrees and settled.
func NewADACS(cfg ADACSConfig) *ADACS {
	rate := cfg.SlewRateDegS
	if rate <= 0 {
		rate = 360 // instantaneous for all practical epoch deltas
	}
	return &ADACS{class: cfg.ClassName, slewRateDegS: rate, settled: true}
}

// ClassName implements domain.Model.
func (a *ADACS) ClassName() string { return a.class }

// Tag implements domain.Model.
func (a *ADACS) Tag() domain.CapabilityTag { return domain.TagADACS }

// SetOwner implements domain.Model.
func (a *ADACS) SetOwner(owner domain.NodeRef) { a.owner = owner }

// Advance implements domain.Model: slew the current pointing angle toward
// the target by this epoch's allowance, settling once it arrives.
func (a *ADACS) Advance(epochTime float64) error {
	if a.settled {
		return nil
	}
	delta := a.targetDeg - a.currentDeg
	step := a.slewRateDegS
	if delta < 0 {
		step = -step
	}
	if (step >= 0 && step >= delta) || (step < 0 && step <= delta) {
		a.currentDeg = a.targetDeg
		a.settled = true
		return nil
	}
	a.currentDeg += step
	return nil
}

// Invoke implements domain.Model. Supported operations:
//
//	point_at(target_deg float)  -> (accepted bool)
//	get_attitude()              -> (current_deg float, target_deg float, settled bool)
//	is_settled()                -> (settled bool)
func (a *ADACS) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "point_at":
		target := args.OptionalFloat("target_deg", a.currentDeg)
		a.targetDeg = target
		a.settled = a.currentDeg == a.targetDeg
		return domain.Args{"accepted": domain.BoolValue(true)}, nil
	case "get_attitude":
		return domain.Args{
			"current_deg": domain.FloatValue(a.currentDeg),
			"target_deg":  domain.FloatValue(a.targetDeg),
			"settled":     domain.BoolValue(a.settled),
		}, nil
	case "is_settled":
		return domain.Args{"settled": domain.BoolValue(a.settled)}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// NewADACSFactory returns a registry.ModelFactory for ADACS, configured from
// the model spec's Extra: slew_rate_deg_s (default: instantaneous).
func NewADACSFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		rate := 0.0
		if v, ok := modelSpec.Extra["slew_rate_deg_s"]; ok {
			if f, ok := v.(float64); ok {
				rate = f
			}
		}
		return NewADACS(ADACSConfig{ClassName: modelSpec.IName, SlewRateDegS: rate}), nil
	}
}
