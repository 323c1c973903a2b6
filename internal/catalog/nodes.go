package catalog

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// NewSatelliteFactory returns a registry.NodeFactory for the SAT node
// class: it registers the node's TLE pair (Extra keys tle_1/tle_2) with the
// shared Oracle under this node's satellite id (its node id, unless
// overridden by "sat_id", matching internal/models/orbital.NewFactory's
// convention).
func NewSatelliteFactory() registry.NodeFactory {
	return func(spec domain.NodeSpec, deps registry.Deps) (registry.NodeInit, error) {
		tle1, ok1 := spec.Extra["tle_1"].(string)
		tle2, ok2 := spec.Extra["tle_2"].(string)
		if !ok1 || !ok2 || tle1 == "" || tle2 == "" {
			return registry.NodeInit{}, &domain.ConfigError{Path: "node.tle_1/tle_2", Reason: "SAT node requires tle_1 and tle_2"}
		}
		satID := satIDFor(spec)
		if deps.Oracle != nil {
			if err := deps.Oracle.RegisterSatellite(satID, tle1, tle2); err != nil {
				return registry.NodeInit{}, &domain.ConfigError{Path: "node.tle_1/tle_2", Reason: err.Error()}
			}
		}
		return nodeWindow(spec), nil
	}
}

// NewGroundStationFactory returns a registry.NodeFactory for the GS node
// class. Ground stations register no propagator state; their fixed
// location is read directly off the scenario by BuildDirectory.
func NewGroundStationFactory() registry.NodeFactory {
	return func(spec domain.NodeSpec, deps registry.Deps) (registry.NodeInit, error) {
		return nodeWindow(spec), nil
	}
}

// NewIoTDeviceFactory returns a registry.NodeFactory for the IOTDEVICE node
// class, identical in shape to the ground-station factory: a fixed ground
// point, no propagator state.
func NewIoTDeviceFactory() registry.NodeFactory {
	return func(spec domain.NodeSpec, deps registry.Deps) (registry.NodeInit, error) {
		return nodeWindow(spec), nil
	}
}

// nodeWindow carries a node's optional start/end time override through to
// the registry.NodeInit the orchestrator folds into the kernel.Node it
// builds; an absent override leaves the full scenario window in effect.
func nodeWindow(spec domain.NodeSpec) registry.NodeInit {
	var init registry.NodeInit
	if spec.StartTime != nil {
		t := spec.StartTime.Time
		init.StartTime = &t
	}
	if spec.EndTime != nil {
		t := spec.EndTime.Time
		init.EndTime = &t
	}
	return init
}
