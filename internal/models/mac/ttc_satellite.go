package mac

import (
	"fmt"
	"math/rand"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/macqueue"
	"github.com/orbsim/orbsim/internal/registry"
)

// ttcState enumerates the TT&C satellite MAC's states.
type ttcState string

const (
	ttcBeaconing       ttcState = "BEACONING"
	ttcAwaitingRequest ttcState = "AWAITING_REQUEST"
	ttcServing         ttcState = "SERVING"
	ttcAwaitingAck     ttcState = "AWAITING_ACK"
)

// TTCSatellite is the TT&C satellite MAC model.
type TTCSatellite struct {
	class string
	owner domain.NodeRef

	beaconFrequency  float64
	downlinkFrequency float64
	beaconInterval   float64
	beaconBackoffMax float64

	rng *rand.Rand

	state       ttcState
	nextBeaconAt float64
	beaconSeq    int64
	lastBeaconID int64
	sentIDs      []string

	radioTags []domain.CapabilityTag
	radio     domain.Model
	datastore *macqueue.DatastoreModel
}

// TTCConfig carries the TT&C satellite MAC's construction-time parameters.
type TTCConfig struct {
	ClassName         string
	BeaconFrequency   float64
	DownlinkFrequency float64
	BeaconInterval    float64
	BeaconBackoffMax  float64
	Seed              int64
	RadioTags         []domain.CapabilityTag
}

// NewTTCSatellite builds a TT&C satellite MAC. radio and datastore siblings
// are resolved lazily on the owner at the first Advance, since the
// Orchestrator constructs a node's resident models in declaration order
// without forward visibility into not-yet-built siblings.
func NewTTCSatellite(cfg TTCConfig) *TTCSatellite {
	return &TTCSatellite{
		class:     cfg.ClassName,
		beaconFrequency: cfg.BeaconFrequency, downlinkFrequency: cfg.DownlinkFrequency,
		beaconInterval: cfg.BeaconInterval, beaconBackoffMax: cfg.BeaconBackoffMax,
		rng: rand.New(rand.NewSource(cfg.Seed)), state: ttcBeaconing,
		radioTags: cfg.RadioTags,
	}
}

// resolveSiblings resolves the radio and datastore siblings on first use;
// a nil return from either leaves the FSM idle for this epoch rather than
// panicking on a scenario that forgot to declare one.
func (t *TTCSatellite) resolveSiblings() bool {
	if t.owner == nil {
		return false
	}
	if t.radio == nil {
		if r, err := radioSibling(t.owner, t.radioTags...); err == nil {
			t.radio = r
		}
	}
	if t.datastore == nil {
		if m, ok := t.owner.HasModelByTag(domain.TagDatastore); ok {
			if ds, ok := m.(*macqueue.DatastoreModel); ok {
				t.datastore = ds
			}
		}
	}
	return t.radio != nil && t.datastore != nil
}

// ClassName implements domain.Model.
func (t *TTCSatellite) ClassName() string { return t.class }

// Tag implements domain.Model.
func (t *TTCSatellite) Tag() domain.CapabilityTag { return domain.TagMAC }

// SetOwner implements domain.Model.
func (t *TTCSatellite) SetOwner(owner domain.NodeRef) { t.owner = owner }

// Invoke implements domain.Model; the TT&C satellite MAC exposes no
// operations of its own; it is a pure per-epoch orchestrator.
func (t *TTCSatellite) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
}

// Advance runs one epoch of the TT&C satellite FSM.
func (t *TTCSatellite) Advance(epochTime float64) error {
	if !t.resolveSiblings() {
		return nil
	}
	switch t.state {
	case ttcBeaconing:
		if epochTime >= t.nextBeaconAt {
			t.beaconSeq++
			transmit(t.radio, t.beaconFrequency, beaconPacketID(t.owner, t.beaconSeq), frame{Kind: frameBeacon, BeaconID: t.beaconSeq})
			t.lastBeaconID = t.beaconSeq
			if t.owner != nil {
				t.owner.Log(domain.LevelInfo, domain.EventBeaconSent, map[string]any{"beacon_id": t.beaconSeq, "frequency": t.beaconFrequency})
			}
			backoff := t.rng.Float64() * t.beaconBackoffMax
			t.nextBeaconAt = epochTime + t.beaconInterval + backoff
			t.state = ttcAwaitingRequest
		}
	case ttcAwaitingRequest:
		frames, ierr := pollReceived(t.radio, t.beaconFrequency)
		if ierr != nil {
			return nil
		}
		for _, f := range frames {
			if f.Kind == frameRequest && f.BeaconID == t.lastBeaconID {
				t.state = ttcServing
				t.serve(f.N)
				return nil
			}
		}
	case ttcServing:
		// Serving completes synchronously inside the AWAITING_REQUEST
		// transition above; SERVING lasts one epoch and then moves on.
		// Frames the radio refused during serve are not re-sent here.
		t.state = ttcAwaitingAck
	case ttcAwaitingAck:
		frames, ierr := pollReceived(t.radio, t.downlinkFrequency)
		if ierr != nil {
			return nil
		}
		for _, f := range frames {
			if f.Kind == frameACK {
				t.datastore.Store().Ack(f.IDs)
				t.sentIDs = nil
				t.state = ttcBeaconing
				return nil
			}
		}
	}
	return nil
}

// serve pulls up to n packets from the datastore without deleting them and
// transmits each on the downlink frequency.
func (t *TTCSatellite) serve(n int) {
	pkts := t.datastore.Store().Peek(n)
	t.sentIDs = t.sentIDs[:0]
	for _, p := range pkts {
		ok, _ := transmit(t.radio, t.downlinkFrequency, p.ID, frame{Kind: frameData, Payload: p.Payload, IDs: []string{p.ID}})
		if ok {
			t.sentIDs = append(t.sentIDs, p.ID)
		}
	}
}

func beaconPacketID(owner domain.NodeRef, seq int64) string {
	id := 0
	if owner != nil {
		id = owner.ID()
	}
	return fmt.Sprintf("beacon-%d-%d", id, seq)
}

// NewTTCSatelliteFactory returns a registry.ModelFactory for the TT&C
// satellite MAC, configured from the model spec's Extra: beacon_frequency,
// downlink_frequency, beacon_interval_s (default 30), beacon_backoff_max_s
// (default 5), seed (default 1).
func NewTTCSatelliteFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := TTCConfig{
			ClassName:         modelSpec.IName,
			BeaconFrequency:   extraFloat(extra, "beacon_frequency", 0),
			DownlinkFrequency: extraFloat(extra, "downlink_frequency", 0),
			BeaconInterval:    extraFloat(extra, "beacon_interval_s", 30),
			BeaconBackoffMax:  extraFloat(extra, "beacon_backoff_max_s", 5),
			Seed:              int64(extraFloat(extra, "seed", 1)),
			RadioTags:         radioTagsFromExtra(extra),
		}
		return NewTTCSatellite(cfg), nil
	}
}
