package imaging

import (
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// Model is the IMAGING capability model. A capture draws a configured
// energy cost from the required POWER sibling (a dependency clause the
// catalog enforces before this model's Advance ever runs) and, when settled
// (an optional ADACS sibling's is_settled, if present), buffers the image
// into an optional DATASTORE-relay sibling for later downlink.
type Model struct {
	class string
	owner domain.NodeRef

	energyPerCaptureJ float64
	imageSizeBytes    int

	mu       sync.Mutex
	captured int
}

// Config carries the model's construction-time parameters.
type Config struct {
	ClassName         string
	EnergyPerCaptureJ float64
	ImageSizeBytes    int
}

// NewModel builds an IMAGING model.
func NewModel(cfg Config) *Model {
	return &Model{class: cfg.ClassName, energyPerCaptureJ: cfg.EnergyPerCaptureJ, imageSizeBytes: cfg.ImageSizeBytes}
}

// ClassName implements domain.Model.
func (m *Model) ClassName() string { return m.class }

// Tag implements domain.Model.
func (m *Model) Tag() domain.CapabilityTag { return domain.TagImaging }

// SetOwner implements domain.Model.
func (m *Model) SetOwner(owner domain.NodeRef) { m.owner = owner }

// Advance implements domain.Model; capture only happens in response to a
// capture_image call, not on a fixed per-epoch schedule.
func (m *Model) Advance(epochTime float64) error { return nil }

// adacsSettled consults the owner's ADACS sibling, if any; a node with no
// ADACS model is assumed always settled (e.g. a fixed-mount camera).
func (m *Model) adacsSettled() bool {
	if m.owner == nil {
		return true
	}
	adacs, ok := m.owner.HasModelByTag(domain.TagADACS)
	if !ok {
		return true
	}
	res, ierr := adacs.Invoke("is_settled", domain.Args{})
	if ierr != nil {
		return true
	}
	return res["settled"].Bool == nil || *res["settled"].Bool
}

// consumeCaptureEnergy draws energyPerCaptureJ from the required POWER
// sibling. A node with no POWER sibling never reaches here: the
// orchestrator's dependency check refuses to build an IMAGING model
// without one.
func (m *Model) consumeCaptureEnergy() bool {
	if m.owner == nil {
		return false
	}
	power, ok := m.owner.HasModelByTag(domain.TagPower)
	if !ok {
		return false
	}
	res, ierr := power.Invoke("consume_energy", domain.Args{
		"tag":    domain.StringValue("IMAGING"),
		"joules": domain.FloatValue(m.energyPerCaptureJ),
	})
	if ierr != nil {
		return false
	}
	return res["accepted"].Bool != nil && *res["accepted"].Bool
}

// relay buffers a captured image's payload into the owner's DATASTORE-relay
// sibling, if one is configured; otherwise the capture is still counted and
// logged, but nothing downstream will ever drain it.
func (m *Model) relay(imageID string, payload []byte) {
	if m.owner == nil {
		return
	}
	store, ok := m.owner.HasModelByTag(domain.TagDatastoreRelay)
	if !ok {
		return
	}
	_, _ = store.Invoke("add_data", domain.Args{
		"id":          domain.StringValue(imageID),
		"payload":     domain.Value{Bytes: payload},
		"source_node": domain.IntValue(int64(m.owner.ID())),
	})
}

// Invoke implements domain.Model. Supported operations:
//
//	capture_image(image_id string) -> (captured bool)
//	get_capture_count()            -> (count int)
func (m *Model) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "capture_image":
		imageID, ierr := args.RequireString(op, "image_id")
		if ierr != nil {
			return nil, ierr
		}
		if !m.adacsSettled() {
			return domain.Args{"captured": domain.BoolValue(false)}, nil
		}
		if !m.consumeCaptureEnergy() {
			return domain.Args{"captured": domain.BoolValue(false)}, nil
		}
		payload := make([]byte, m.imageSizeBytes)
		m.relay(imageID, payload)
		m.mu.Lock()
		m.captured++
		m.mu.Unlock()
		if m.owner != nil {
			m.owner.Log(domain.LevelInfo, domain.EventImageTaken, map[string]any{
				"image_id": imageID, "size_bytes": m.imageSizeBytes,
			})
		}
		return domain.Args{"captured": domain.BoolValue(true)}, nil
	case "get_capture_count":
		m.mu.Lock()
		n := m.captured
		m.mu.Unlock()
		return domain.Args{"count": domain.IntValue(int64(n))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// NewFactory returns a registry.ModelFactory for IMAGING, configured from
// the model spec's Extra: energy_per_capture_j (default 0), image_size_bytes
// (default 0).
func NewFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		energy := 0.0
		if v, ok := extra["energy_per_capture_j"]; ok {
			if f, ok := v.(float64); ok {
				energy = f
			}
		}
		size := 0
		if v, ok := extra["image_size_bytes"]; ok {
			if f, ok := v.(float64); ok {
				size = int(f)
			}
		}
		return NewModel(Config{ClassName: modelSpec.IName, EnergyPerCaptureJ: energy, ImageSizeBytes: size}), nil
	}
}
