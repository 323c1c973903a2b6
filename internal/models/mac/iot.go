package mac

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// iotState enumerates the IoT MAC's states.
type iotState string

const (
	iotIdle          iotState = "IDLE"
	iotWaitingBeacon iotState = "WAITING_BEACON"
	iotTransmitting  iotState = "TRANSMITTING"
	iotAwaitingAck   iotState = "AWAITING_ACK"
	iotBackoff       iotState = "BACKOFF"
)

// IoT is the IoT device MAC model.
type IoT struct {
	class string
	owner domain.NodeRef

	uplinkFrequency float64

	state          iotState
	lastBeaconSeen int64
	currentBeacon  int64
	pendingID      string
	pendingPayload []byte

	radioTags []domain.CapabilityTag
	radio     domain.Model
	generator domain.Model // exposes get_data / get_queue_size, per the Generator's Invoke surface
}

// IoTConfig carries the IoT MAC's construction-time parameters.
type IoTConfig struct {
	ClassName       string
	UplinkFrequency float64
	RadioTags       []domain.CapabilityTag
}

// NewIoT builds an IoT MAC. radio and data-generator siblings are resolved
// lazily at the first Advance, per the same pattern as the TT&C satellite
// MAC.
func NewIoT(cfg IoTConfig) *IoT {
	return &IoT{
		class:           cfg.ClassName,
		uplinkFrequency: cfg.UplinkFrequency, state: iotIdle, lastBeaconSeen: -1,
		radioTags: cfg.RadioTags,
	}
}

func (d *IoT) resolveSiblings() bool {
	if d.owner == nil {
		return false
	}
	if d.radio == nil {
		if r, err := radioSibling(d.owner, d.radioTags...); err == nil {
			d.radio = r
		}
	}
	if d.generator == nil {
		if m, ok := d.owner.HasModelByTag(domain.TagDataGenerator); ok {
			d.generator = m
		}
	}
	return d.radio != nil && d.generator != nil
}

// ClassName implements domain.Model.
func (d *IoT) ClassName() string { return d.class }

// Tag implements domain.Model.
func (d *IoT) Tag() domain.CapabilityTag { return domain.TagMAC }

// SetOwner implements domain.Model.
func (d *IoT) SetOwner(owner domain.NodeRef) { d.owner = owner }

// Invoke implements domain.Model; the IoT MAC exposes no operations of its
// own.
func (d *IoT) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
}

// Advance runs one epoch of the IoT device FSM.
func (d *IoT) Advance(epochTime float64) error {
	if !d.resolveSiblings() {
		return nil
	}
	switch d.state {
	case iotIdle:
		size, ierr := d.generator.Invoke("get_queue_size", nil)
		if ierr != nil {
			return nil
		}
		if size["size"].Int != nil && *size["size"].Int > 0 {
			d.state = iotWaitingBeacon
		}
	case iotWaitingBeacon:
		if beaconID, ok := d.newBeacon(); ok {
			d.currentBeacon = beaconID
			d.state = iotTransmitting
		}
	case iotTransmitting:
		if d.pendingID == "" {
			res, ierr := d.generator.Invoke("get_data", nil)
			if ierr != nil || res["found"].Bool == nil || !*res["found"].Bool {
				d.state = iotIdle
				return nil
			}
			d.pendingID = *res["id"].Str
			d.pendingPayload = res["payload"].Bytes
		}
		transmit(d.radio, d.uplinkFrequency, d.pendingID, frame{Kind: frameData, Payload: d.pendingPayload, IDs: []string{d.pendingID}, BeaconID: d.currentBeacon})
		d.state = iotAwaitingAck
	case iotAwaitingAck:
		frames, ierr := pollReceived(d.radio, d.uplinkFrequency)
		if ierr != nil {
			return nil
		}
		for _, f := range frames {
			if f.Kind == frameACK && containsID(f.IDs, d.pendingID) {
				d.pendingID = ""
				d.pendingPayload = nil
				d.state = iotIdle
				return nil
			}
		}
		// The poll above drained the uplink queue, so a new beacon is looked
		// for among the same frames rather than by polling again.
		for _, f := range frames {
			if f.Kind == frameBeacon && f.BeaconID != d.lastBeaconSeen {
				d.lastBeaconSeen = f.BeaconID
				d.currentBeacon = f.BeaconID
				d.state = iotBackoff
				return nil
			}
		}
	case iotBackoff:
		d.state = iotTransmitting
	}
	return nil
}

// newBeacon reports a not-yet-acted-on beacon id, identified uniquely so a
// stale beacon already handled this cycle is never acted on twice.
func (d *IoT) newBeacon() (int64, bool) {
	frames, ierr := pollReceived(d.radio, d.uplinkFrequency)
	if ierr != nil {
		return 0, false
	}
	for _, f := range frames {
		if f.Kind == frameBeacon && f.BeaconID != d.lastBeaconSeen {
			d.lastBeaconSeen = f.BeaconID
			return f.BeaconID, true
		}
	}
	return 0, false
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// NewIoTFactory returns a registry.ModelFactory for the IoT MAC, configured
// from the model spec's Extra: uplink_frequency.
func NewIoTFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := IoTConfig{
			ClassName:       modelSpec.IName,
			UplinkFrequency: extraFloat(extra, "uplink_frequency", 0),
			RadioTags:       radioTagsFromExtra(extra),
		}
		return NewIoT(cfg), nil
	}
}
