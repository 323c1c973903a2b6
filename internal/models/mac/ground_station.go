package mac

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/macqueue"
	"github.com/orbsim/orbsim/internal/registry"
)

// gsState enumerates the ground-station MAC's states.
type gsState string

const (
	gsListening  gsState = "LISTENING"
	gsRequesting gsState = "REQUESTING"
	gsReceiving  gsState = "RECEIVING"
	gsAcking     gsState = "ACKING"
)

// GroundStation is the ground-station MAC model.
type GroundStation struct {
	class string
	owner domain.NodeRef

	beaconFrequency   float64
	downlinkFrequency float64
	numPackets        int
	timeout           float64

	state           gsState
	beaconID        int64
	lastReceiptTime float64
	receivedIDs     []string

	radioTags []domain.CapabilityTag
	radio     domain.Model
	datastore *macqueue.DatastoreModel
}

// GSConfig carries the ground-station MAC's construction-time parameters.
type GSConfig struct {
	ClassName         string
	BeaconFrequency   float64
	DownlinkFrequency float64
	NumPackets        int
	Timeout           float64
	RadioTags         []domain.CapabilityTag
}

// NewGroundStation builds a ground-station MAC. radio and datastore
// siblings are resolved lazily at the first Advance, per the same pattern
// as the TT&C satellite MAC.
func NewGroundStation(cfg GSConfig) *GroundStation {
	return &GroundStation{
		class:           cfg.ClassName,
		beaconFrequency: cfg.BeaconFrequency, downlinkFrequency: cfg.DownlinkFrequency,
		numPackets: cfg.NumPackets, timeout: cfg.Timeout, state: gsListening,
		radioTags: cfg.RadioTags,
	}
}

func (g *GroundStation) resolveSiblings() bool {
	if g.owner == nil {
		return false
	}
	if g.radio == nil {
		if r, err := radioSibling(g.owner, g.radioTags...); err == nil {
			g.radio = r
		}
	}
	if g.datastore == nil {
		if m, ok := g.owner.HasModelByTag(domain.TagDatastore); ok {
			if ds, ok := m.(*macqueue.DatastoreModel); ok {
				g.datastore = ds
			}
		}
	}
	return g.radio != nil && g.datastore != nil
}

// ClassName implements domain.Model.
func (g *GroundStation) ClassName() string { return g.class }

// Tag implements domain.Model.
func (g *GroundStation) Tag() domain.CapabilityTag { return domain.TagMAC }

// SetOwner implements domain.Model.
func (g *GroundStation) SetOwner(owner domain.NodeRef) { g.owner = owner }

// Invoke implements domain.Model; the ground-station MAC exposes no
// operations of its own.
func (g *GroundStation) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
}

// Advance runs one epoch of the ground-station FSM.
func (g *GroundStation) Advance(epochTime float64) error {
	if !g.resolveSiblings() {
		return nil
	}
	switch g.state {
	case gsListening:
		frames, ierr := pollReceived(g.radio, g.beaconFrequency)
		if ierr != nil {
			return nil
		}
		for _, f := range frames {
			if f.Kind == frameBeacon {
				g.beaconID = f.BeaconID
				g.state = gsRequesting
				return nil
			}
		}
	case gsRequesting:
		transmit(g.radio, g.beaconFrequency, "", frame{Kind: frameRequest, N: g.numPackets, BeaconID: g.beaconID})
		g.receivedIDs = g.receivedIDs[:0]
		g.lastReceiptTime = epochTime
		g.state = gsReceiving
	case gsReceiving:
		frames, ierr := pollReceived(g.radio, g.downlinkFrequency)
		if ierr != nil {
			return nil
		}
		for _, f := range frames {
			if f.Kind != frameData {
				continue
			}
			id := ""
			if len(f.IDs) > 0 {
				id = f.IDs[0]
			}
			g.datastore.Store().Add(domain.Packet{ID: id, Payload: f.Payload})
			g.receivedIDs = append(g.receivedIDs, id)
			g.lastReceiptTime = epochTime
		}
		if len(g.receivedIDs) >= g.numPackets || epochTime-g.lastReceiptTime >= g.timeout {
			g.state = gsAcking
		}
	case gsAcking:
		transmit(g.radio, g.downlinkFrequency, "", frame{Kind: frameACK, IDs: g.receivedIDs})
		g.receivedIDs = nil
		g.state = gsListening
	}
	return nil
}

// NewGroundStationFactory returns a registry.ModelFactory for the
// ground-station MAC, configured from the model spec's Extra:
// beacon_frequency, downlink_frequency, num_packets (default 1),
// timeout_s (default 60).
func NewGroundStationFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := GSConfig{
			ClassName:         modelSpec.IName,
			BeaconFrequency:   extraFloat(extra, "beacon_frequency", 0),
			DownlinkFrequency: extraFloat(extra, "downlink_frequency", 0),
			NumPackets:        int(extraFloat(extra, "num_packets", 1)),
			Timeout:           extraFloat(extra, "timeout_s", 60),
			RadioTags:         radioTagsFromExtra(extra),
		}
		return NewGroundStation(cfg), nil
	}
}
