package radio

import (
	"github.com/orbsim/orbsim/internal/domain"
	radiosubstrate "github.com/orbsim/orbsim/internal/radio"
	"github.com/orbsim/orbsim/internal/registry"
)

// islPredicate implements the ISL success test: a dedicated point-to-point
// link to an explicitly declared peer, gated only by a maximum range. No
// FoV gating and no shared-spectrum interference; the declared peer list
// replaces FoV discovery.
type islPredicate struct {
	maxRangeM float64
}

// Evaluate implements radiosubstrate.SuccessPredicate.
func (p islPredicate) Evaluate(distanceM, frequencyHz float64, tx, rx radiosubstrate.PHYParams, interferersBefore int) bool {
	if p.maxRangeM <= 0 {
		return true
	}
	return distanceM <= p.maxRangeM
}

// NewISLFactory returns a registry.ModelFactory for ISL, configured from the
// model spec's Extra: peer_ids (required, the fixed satellite peer list),
// max_range_m (0 = unbounded), plus the common PHY keys in helpers.go.
func NewISLFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		peerIDs := extraInts(extra, "peer_ids")
		if len(peerIDs) == 0 {
			return nil, &domain.ConfigError{Path: "model.peer_ids", Reason: "ISL radio requires a non-empty peer_ids list"}
		}
		cfg := radiosubstrate.Config{
			ClassName:  modelSpec.IName,
			Tag:        domain.TagISL,
			PHY:        commonPHY(extra),
			SelfCtrl:   extraBool(extra, "self_ctrl", false),
			ISLPeerIDs: peerIDs,
			Oracle:     deps.Oracle,
			Directory:  deps.Directory,
			Predicate:  islPredicate{maxRangeM: extraFloat(extra, "max_range_m", 0)},
			SimEpoch:   deps.SimStart,
			DeltaSec:   deps.SimDelta.Seconds(),
		}
		return radiosubstrate.NewRadio(cfg), nil
	}
}
