// Package mac implements the three MAC finite-state machines: the TT&C
// satellite MAC, the ground-station MAC,
// and the IoT MAC. Each is a pure orchestrator over sibling Radio and
// Datastore/Generator models, reached through the dynamic Invoke surface so
// this package never imports internal/radio or internal/macqueue's model
// types directly; only the domain.Model interface and the small wire
// contract documented below.
//
// Radio contract (satisfied by internal/models/radio):
//
//	transmit(frequency float, payload bytes, packet_id string) -> (accepted bool)
//	poll_received(frequency float) -> (packets []{id, payload, source_node})
//
// Control frames (beacons, requests, ACKs) are carried as JSON-encoded
// payload bytes, an internal wire format private to this package.
package mac

import (
	"encoding/json"
	"fmt"

	"github.com/orbsim/orbsim/internal/domain"
)

// frameKind enumerates the MAC control-frame kinds exchanged over a radio
// payload.
type frameKind string

const (
	frameBeacon  frameKind = "beacon"
	frameRequest frameKind = "request"
	frameACK     frameKind = "ack"
	frameData    frameKind = "data"
)

// frame is the envelope for every MAC control/data exchange.
type frame struct {
	Kind     frameKind `json:"kind"`
	N        int       `json:"n,omitempty"`
	IDs      []string  `json:"ids,omitempty"`
	BeaconID int64     `json:"beacon_id,omitempty"`
	Payload  []byte    `json:"payload,omitempty"`
}

func encodeFrame(f frame) []byte {
	b, _ := json.Marshal(f)
	return b
}

func decodeFrame(b []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return frame{}, err
	}
	return f, nil
}

// transmit sends one frame through the named radio sibling at the given
// frequency.
func transmit(radio domain.Model, frequency float64, packetID string, f frame) (bool, *domain.InvocationError) {
	res, ierr := radio.Invoke("transmit", domain.Args{
		"frequency": domain.FloatValue(frequency),
		"payload":   {Bytes: encodeFrame(f)},
		"packet_id": domain.StringValue(packetID),
	})
	if ierr != nil {
		return false, ierr
	}
	if res == nil {
		return false, nil
	}
	v := res["accepted"]
	return v.Bool != nil && *v.Bool, nil
}

// pollReceived fetches every frame received this epoch on frequency,
// decoding each payload.
func pollReceived(radio domain.Model, frequency float64) ([]frame, *domain.InvocationError) {
	res, ierr := radio.Invoke("poll_received", domain.Args{"frequency": domain.FloatValue(frequency)})
	if ierr != nil {
		return nil, ierr
	}
	list := res["packets"].List
	out := make([]frame, 0, len(list))
	for _, v := range list {
		payload := v.Nested["payload"].Bytes
		f, err := decodeFrame(payload)
		if err != nil {
			continue // malformed frame: ignored, not fatal
		}
		out = append(out, f)
	}
	return out, nil
}

func radioSibling(owner domain.NodeRef, tags ...domain.CapabilityTag) (domain.Model, error) {
	for _, tag := range tags {
		if m, ok := owner.HasModelByTag(tag); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("mac: no radio sibling found for tags %v", tags)
}

// defaultRadioTags is the search order a MAC model uses when a scenario
// doesn't name an explicit radio_tag: try the LoRa tag, then X-band, then
// ISL, taking whichever sibling the owning node actually has.
var defaultRadioTags = []domain.CapabilityTag{domain.TagBasicLoRa, domain.TagImagingRadio, domain.TagISL}

// radioTagsFromExtra reads an optional "radio_tag" key (a single capability
// tag string) out of a model spec's Extra, falling back to
// defaultRadioTags when absent.
func radioTagsFromExtra(extra map[string]any) []domain.CapabilityTag {
	if v, ok := extra["radio_tag"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return []domain.CapabilityTag{domain.CapabilityTag(s)}
		}
	}
	return defaultRadioTags
}

func extraFloat(extra map[string]any, key string, def float64) float64 {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}
