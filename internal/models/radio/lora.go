package radio

import (
	"math"

	"github.com/orbsim/orbsim/internal/domain"
	radiosubstrate "github.com/orbsim/orbsim/internal/radio"
	"github.com/orbsim/orbsim/internal/registry"
)

// loraPredicate implements the BASICLORARADIO success test: free-space path
// loss against an SF-dependent demodulation threshold, over a noise floor
// widened additively by concurrent same-frequency interferers this epoch.
type loraPredicate struct {
	spreadingFactor int
	noiseFigureDb   float64
}

// Evaluate implements radiosubstrate.SuccessPredicate.
func (p loraPredicate) Evaluate(distanceM, frequencyHz float64, tx, rx radiosubstrate.PHYParams, interferersBefore int) bool {
	if distanceM <= 0 || frequencyHz <= 0 {
		return false
	}
	pathLossDb := freeSpacePathLossDb(distanceM, frequencyHz)
	rxPowerDbm := tx.EffectiveEIRPDbm() - pathLossDb + rx.AntennaGainDbi - rx.LineLossDb

	bw := rx.BandwidthHz
	if bw <= 0 {
		bw = 125000
	}
	noiseFloorDbm := thermalNoiseFloorDbm(bw, p.noiseFigureDb) + 10*math.Log10(1+float64(interferersBefore))

	// Demodulation SNR limit per spreading factor (-7.5 dB at SF7 down to
	// -20 dB at SF12); the spreading gain is already folded into these
	// thresholds.
	requiredSnrDb := -7.5 - float64(p.spreadingFactor-7)*2.5

	snr := rxPowerDbm - noiseFloorDbm
	return snr >= requiredSnrDb
}

// NewLoRaFactory returns a registry.ModelFactory for BASICLORARADIO,
// configured from the model spec's Extra: spreading_factor (default 7),
// noise_figure_db (default 6), plus the common PHY keys in helpers.go.
func NewLoRaFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		sf := extraInt(extra, "spreading_factor", 7)
		cfg := radiosubstrate.Config{
			ClassName:  modelSpec.IName,
			Tag:        domain.TagBasicLoRa,
			PHY:        commonPHY(extra),
			SelfCtrl:   extraBool(extra, "self_ctrl", false),
			TargetKind: targetKind(nodeSpec.Type, extra),
			Oracle:     deps.Oracle,
			Directory:  deps.Directory,
			Predicate:  loraPredicate{spreadingFactor: sf, noiseFigureDb: extraFloat(extra, "noise_figure_db", 6)},
			SimEpoch:   deps.SimStart,
			DeltaSec:   deps.SimDelta.Seconds(),
		}
		return radiosubstrate.NewRadio(cfg), nil
	}
}

// freeSpacePathLossDb computes the free-space path loss in dB for distance
// (meters) and frequency (Hz).
func freeSpacePathLossDb(distanceM, frequencyHz float64) float64 {
	distanceKm := distanceM / 1000
	frequencyMHz := frequencyHz / 1e6
	return 20*math.Log10(distanceKm) + 20*math.Log10(frequencyMHz) + 32.44
}

// thermalNoiseFloorDbm is kTB in dBm plus a receiver noise figure, for
// bandwidth bw (Hz) at room temperature.
func thermalNoiseFloorDbm(bw, noiseFigureDb float64) float64 {
	return -174 + 10*math.Log10(bw) + noiseFigureDb
}
