package catalog

import (
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/fov"
	"github.com/orbsim/orbsim/internal/macqueue"
	"github.com/orbsim/orbsim/internal/models/compute"
	"github.com/orbsim/orbsim/internal/models/imaging"
	"github.com/orbsim/orbsim/internal/models/mac"
	"github.com/orbsim/orbsim/internal/models/orbital"
	"github.com/orbsim/orbsim/internal/models/power"
	radiomodels "github.com/orbsim/orbsim/internal/models/radio"
	"github.com/orbsim/orbsim/internal/models/scheduler"
	"github.com/orbsim/orbsim/internal/registry"
)

// Canonical node and model class names. A scenario's "iname" keys name
// these exactly.
const (
	NodeClassSatellite    = "Satellite"
	NodeClassGroundStation = "GroundStation"
	NodeClassIoTDevice    = "IoTDevice"

	ModelClassOrbital            = "Orbital"
	ModelClassPower              = "Power"
	ModelClassCompute            = "Compute"
	ModelClassBasicLoRaRadio     = "BasicLoRaRadio"
	ModelClassImagingRadio       = "ImagingRadio"
	ModelClassISL                = "ISL"
	ModelClassViewOfNodeElev     = "ViewOfNodeElevation"
	ModelClassViewOfNodePassTable = "ViewOfNodePassTable"
	ModelClassDatastore          = "Datastore"
	ModelClassDataGenerator      = "DataGenerator"
	ModelClassTTCSatelliteMAC    = "TTCSatelliteMAC"
	ModelClassGroundStationMAC   = "GroundStationMAC"
	ModelClassIoTMAC             = "IoTMAC"
	ModelClassADACS              = "ADACS"
	ModelClassImagingLogicBased  = "ModelImagingLogicBased"
	ModelClassDatastoreRelay     = "DatastoreRelay"
	ModelClassScheduler          = "Scheduler"
)

// radioClassNames is the CNF clause every MAC model's dependency expression
// uses for its radio sibling: at least one of the three concrete radio
// classes must be present.
var radioClassNames = []string{ModelClassBasicLoRaRadio, ModelClassImagingRadio, ModelClassISL}

// Register populates reg with every node and model class this simulator
// ships.
func Register(reg *registry.Registry) {
	reg.RegisterNodeClass(NodeClassSatellite, NewSatelliteFactory())
	reg.RegisterNodeClass(NodeClassGroundStation, NewGroundStationFactory())
	reg.RegisterNodeClass(NodeClassIoTDevice, NewIoTDeviceFactory())

	reg.RegisterModelClass(ModelClassOrbital, registry.ModelEntry{
		Factory: orbital.NewFactory(),
		Tag:     domain.TagOrbital,
		Owners:  []domain.NodeKind{domain.NodeSAT},
	})
	reg.RegisterModelClass(ModelClassPower, registry.ModelEntry{
		Factory: power.NewFactory(),
		Tag:     domain.TagPower,
	})
	reg.RegisterModelClass(ModelClassCompute, registry.ModelEntry{
		Factory: compute.NewFactory(),
		Tag:     domain.TagCompute,
	})
	reg.RegisterModelClass(ModelClassBasicLoRaRadio, registry.ModelEntry{
		Factory: radiomodels.NewLoRaFactory(),
		Tag:     domain.TagBasicLoRa,
	})
	reg.RegisterModelClass(ModelClassImagingRadio, registry.ModelEntry{
		Factory: radiomodels.NewXBandFactory(),
		Tag:     domain.TagImagingRadio,
	})
	reg.RegisterModelClass(ModelClassISL, registry.ModelEntry{
		Factory: radiomodels.NewISLFactory(),
		Tag:     domain.TagISL,
		Owners:  []domain.NodeKind{domain.NodeSAT},
	})
	reg.RegisterModelClass(ModelClassViewOfNodeElev, registry.ModelEntry{
		Factory: newElevationFoVFactory(),
		Tag:     domain.TagViewOfNode,
	})
	reg.RegisterModelClass(ModelClassViewOfNodePassTable, registry.ModelEntry{
		Factory: newPassTableFoVFactory(),
		Tag:     domain.TagViewOfNode,
	})
	reg.RegisterModelClass(ModelClassDatastore, registry.ModelEntry{
		Factory: macqueue.NewDatastoreFactory(),
		Tag:     domain.TagDatastore,
	})
	reg.RegisterModelClass(ModelClassDataGenerator, registry.ModelEntry{
		Factory: macqueue.NewGeneratorFactory(),
		Tag:     domain.TagDataGenerator,
		Owners:  []domain.NodeKind{domain.NodeIOTDevice},
	})
	reg.RegisterModelClass(ModelClassTTCSatelliteMAC, registry.ModelEntry{
		Factory:    mac.NewTTCSatelliteFactory(),
		Tag:        domain.TagMAC,
		Owners:     []domain.NodeKind{domain.NodeSAT},
		Dependency: domain.DependencyExpr{Clauses: [][]string{radioClassNames, {ModelClassDatastore}}},
	})
	reg.RegisterModelClass(ModelClassGroundStationMAC, registry.ModelEntry{
		Factory:    mac.NewGroundStationFactory(),
		Tag:        domain.TagMAC,
		Owners:     []domain.NodeKind{domain.NodeGS},
		Dependency: domain.DependencyExpr{Clauses: [][]string{radioClassNames, {ModelClassDatastore}}},
	})
	reg.RegisterModelClass(ModelClassIoTMAC, registry.ModelEntry{
		Factory:    mac.NewIoTFactory(),
		Tag:        domain.TagMAC,
		Owners:     []domain.NodeKind{domain.NodeIOTDevice},
		Dependency: domain.DependencyExpr{Clauses: [][]string{radioClassNames, {ModelClassDataGenerator}}},
	})
	reg.RegisterModelClass(ModelClassADACS, registry.ModelEntry{
		Factory: imaging.NewADACSFactory(),
		Tag:     domain.TagADACS,
		Owners:  []domain.NodeKind{domain.NodeSAT},
	})
	reg.RegisterModelClass(ModelClassDatastoreRelay, registry.ModelEntry{
		Factory: imaging.NewRelayFactory(),
		Tag:     domain.TagDatastoreRelay,
	})
	reg.RegisterModelClass(ModelClassImagingLogicBased, registry.ModelEntry{
		Factory:    imaging.NewFactory(),
		Tag:        domain.TagImaging,
		Owners:     []domain.NodeKind{domain.NodeSAT},
		Dependency: domain.DependencyExpr{Clauses: [][]string{{ModelClassPower}}},
	})
	reg.RegisterModelClass(ModelClassScheduler, registry.ModelEntry{
		Factory: scheduler.NewFactory(),
		Tag:     domain.TagScheduler,
		Owners:  []domain.NodeKind{domain.NodeSAT},
	})
}

// newElevationFoVFactory returns a registry.ModelFactory for
// ViewOfNodeElevation: the direct-query Strategy, re-evaluated against the
// oracle on every call.
func newElevationFoVFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		strategy := fov.NewElevationSampled(deps.Oracle)
		return buildFoVModel(ModelClassViewOfNodeElev, strategy, nodeSpec, modelSpec, deps), nil
	}
}

// newPassTableFoVFactory returns a registry.ModelFactory for
// ViewOfNodePassTable: the memoized strategy, precomputed once over the
// scenario's full simulated horizon.
func newPassTableFoVFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		step := time.Duration(extraFloat(modelSpec.Extra, "sample_step_s", 30)) * time.Second
		strategy := fov.NewPassTable(deps.Oracle, deps.SimStart, deps.SimEnd, step)
		return buildFoVModel(ModelClassViewOfNodePassTable, strategy, nodeSpec, modelSpec, deps), nil
	}
}

func buildFoVModel(className string, strategy fov.Strategy, nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) *fov.Model {
	minElev := extraFloat(modelSpec.Extra, "min_elevation_deg", 10)
	viewpoint := fov.Viewpoint{}
	if nodeSpec.Type == domain.NodeSAT {
		satID := satIDFor(nodeSpec)
		viewpoint.SatID = &satID
	} else {
		g := groundPointFor(nodeSpec)
		viewpoint.Ground = &g
	}
	return fov.NewModel(className, strategy, viewpoint, deps.Directory, minElev, deps.SimStart)
}
