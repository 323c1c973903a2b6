// Package power implements the Power Model: a joule-tracked battery with
// configured MIN/MAX/INITIAL capacity, per-tag consumption rates, solar
// generation gated by the orbital oracle's sunlight predicate, and a
// has_energy gate schedulers consult before committing to expensive
// operations.
package power

import (
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/metrics"
	"github.com/orbsim/orbsim/internal/registry"
)

// consumption is one queued consume_energy request, resolved to joules at
// enqueue time.
type consumption struct {
	tag    string
	joules float64
}

// Model is the POWER capability model.
type Model struct {
	class string
	owner domain.NodeRef

	minCapacity, maxCapacity float64
	solarWatts               float64
	efficiency               float64
	deltaSec                 float64
	rateTableWatts           map[string]float64
	minThresholds            map[string]float64

	mu      sync.Mutex
	joules  float64
	pending []consumption
}

// Config carries the model's construction-time parameters.
type Config struct {
	ClassName       string
	MinCapacity     float64
	MaxCapacity     float64
	InitialCapacity float64
	SolarWatts      float64
	Efficiency      float64 // [0,1], solar-to-battery conversion
	DeltaSec        float64
	RateTableWatts  map[string]float64 // tag -> watts, for the tag+duration consume_energy form
	MinThresholds   map[string]float64 // tag -> minimum joules consume_energy must leave behind
}

// NewModel builds a POWER model with its battery at InitialCapacity,
// clamped into [MinCapacity, MaxCapacity].
func NewModel(cfg Config) *Model {
	joules := cfg.InitialCapacity
	if joules < cfg.MinCapacity {
		joules = cfg.MinCapacity
	}
	if joules > cfg.MaxCapacity {
		joules = cfg.MaxCapacity
	}
	rates := cfg.RateTableWatts
	if rates == nil {
		rates = map[string]float64{}
	}
	thresholds := cfg.MinThresholds
	if thresholds == nil {
		thresholds = map[string]float64{}
	}
	return &Model{
		class: cfg.ClassName, minCapacity: cfg.MinCapacity, maxCapacity: cfg.MaxCapacity,
		solarWatts: cfg.SolarWatts, efficiency: cfg.Efficiency, deltaSec: cfg.DeltaSec,
		rateTableWatts: rates, minThresholds: thresholds, joules: joules,
	}
}

// ClassName implements domain.Model.
func (m *Model) ClassName() string { return m.class }

// Tag implements domain.Model.
func (m *Model) Tag() domain.CapabilityTag { return domain.TagPower }

// SetOwner implements domain.Model.
func (m *Model) SetOwner(owner domain.NodeRef) { m.owner = owner }

// sunlit consults the owner's ORBITAL sibling, if any; a node with no
// ORBITAL model (e.g. an IoT device) generates nothing from solar input.
func (m *Model) sunlit() bool {
	if m.owner == nil {
		return false
	}
	orbital, ok := m.owner.HasModelByTag(domain.TagOrbital)
	if !ok {
		return false
	}
	res, ierr := orbital.Invoke("in_sunlight", domain.Args{})
	if ierr != nil {
		return false
	}
	return res["sunlit"].Bool != nil && *res["sunlit"].Bool
}

// Advance implements domain.Model: compute this epoch's solar generation
// (gated by sunlight), clamp into capacity, then settle any consumption
// requests queued since the last epoch.
func (m *Model) Advance(epochTime float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sunlit() {
		m.joules += m.solarWatts * m.efficiency * m.deltaSec
	}
	m.clampLocked()

	pending := m.pending
	m.pending = nil
	for _, c := range pending {
		m.applyLocked(c)
	}
	return nil
}

func (m *Model) clampLocked() {
	if m.joules > m.maxCapacity {
		m.joules = m.maxCapacity
	}
	if m.joules < m.minCapacity {
		m.joules = m.minCapacity
	}
}

// applyLocked deducts one consumption, never crossing MIN_CAPACITY or the
// tag's minimum threshold.
func (m *Model) applyLocked(c consumption) bool {
	floor := m.minCapacity
	if t, ok := m.minThresholds[c.tag]; ok && t > floor {
		floor = t
	}
	if m.joules-c.joules < floor {
		return false
	}
	m.joules -= c.joules
	if m.owner != nil {
		m.owner.Log(domain.LevelDebug, domain.EventEnergyConsumed, map[string]any{
			"tag": c.tag, "joules": c.joules, "remaining": m.joules,
		})
	}
	tag := c.tag
	if tag == "" {
		tag = "unspecified"
	}
	metrics.EnergyConsumedJoules.WithLabelValues(tag).Add(c.joules)
	return true
}

// Invoke implements domain.Model. Supported operations:
//
//	consume_energy(joules? float, power_w? float, duration_s? float, tag? string) -> (accepted bool)
//	has_energy(tag string)                                                          -> (has bool)
//	get_capacity_joules()                                                            -> (joules float)
func (m *Model) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "consume_energy":
		c, ierr := m.resolveConsumption(op, args)
		if ierr != nil {
			return nil, ierr
		}
		m.mu.Lock()
		accepted := m.applyLocked(c)
		m.mu.Unlock()
		return domain.Args{"accepted": domain.BoolValue(accepted)}, nil
	case "has_energy":
		tag, ierr := args.RequireString(op, "tag")
		if ierr != nil {
			return nil, ierr
		}
		m.mu.Lock()
		floor := m.minCapacity
		if t, ok := m.minThresholds[tag]; ok && t > floor {
			floor = t
		}
		has := m.joules > floor
		m.mu.Unlock()
		return domain.Args{"has": domain.BoolValue(has)}, nil
	case "get_capacity_joules":
		m.mu.Lock()
		j := m.joules
		m.mu.Unlock()
		return domain.Args{"joules": domain.FloatValue(j)}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// resolveConsumption implements consume_energy's three input forms: direct
// joules; power (W) + duration (s); or tag + duration (s) looked up against
// the rate table.
func (m *Model) resolveConsumption(op string, args domain.Args) (consumption, *domain.InvocationError) {
	tag := ""
	if v, ok := args["tag"]; ok && v.Str != nil {
		tag = *v.Str
	}
	if v, ok := args["joules"]; ok && v.Float != nil {
		return consumption{tag: tag, joules: *v.Float}, nil
	}
	duration, hasDuration := args["duration_s"]
	if !hasDuration || duration.Float == nil {
		return consumption{}, &domain.InvocationError{Kind: domain.MissingArgument, Operation: op, Detail: "joules, or power_w+duration_s, or tag+duration_s"}
	}
	if v, ok := args["power_w"]; ok && v.Float != nil {
		return consumption{tag: tag, joules: *v.Float * *duration.Float}, nil
	}
	if tag == "" {
		return consumption{}, &domain.InvocationError{Kind: domain.MissingArgument, Operation: op, Detail: "tag"}
	}
	rate, ok := m.rateTableWatts[tag]
	if !ok {
		return consumption{}, &domain.InvocationError{Kind: domain.InvalidArgument, Operation: op, Detail: "no rate configured for tag " + tag}
	}
	return consumption{tag: tag, joules: rate * *duration.Float}, nil
}

// NewFactory returns a registry.ModelFactory for POWER, configured from the
// model spec's Extra: min_capacity_j, max_capacity_j, initial_capacity_j,
// solar_watts, efficiency (default 1.0), rate_table_w (tag -> watts),
// min_thresholds_j (tag -> joules).
func NewFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := Config{
			ClassName:       modelSpec.IName,
			MinCapacity:     extraFloat(extra, "min_capacity_j", 0),
			MaxCapacity:     extraFloat(extra, "max_capacity_j", 0),
			InitialCapacity: extraFloat(extra, "initial_capacity_j", 0),
			SolarWatts:      extraFloat(extra, "solar_watts", 0),
			Efficiency:      extraFloat(extra, "efficiency", 1.0),
			DeltaSec:        deps.SimDelta.Seconds(),
			RateTableWatts:  extraFloatMap(extra, "rate_table_w"),
			MinThresholds:   extraFloatMap(extra, "min_thresholds_j"),
		}
		if cfg.MaxCapacity <= 0 {
			return nil, &domain.ConfigError{Path: "model.max_capacity_j", Reason: "POWER requires a positive max_capacity_j"}
		}
		return NewModel(cfg), nil
	}
}

func extraFloat(extra map[string]any, key string, def float64) float64 {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

func extraFloatMap(extra map[string]any, key string) map[string]float64 {
	v, ok := extra[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, raw := range m {
		if f, ok := raw.(float64); ok {
			out[k] = f
		}
	}
	return out
}
