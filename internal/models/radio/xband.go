package radio

import (
	"math"

	"github.com/orbsim/orbsim/internal/domain"
	radiosubstrate "github.com/orbsim/orbsim/internal/radio"
	"github.com/orbsim/orbsim/internal/registry"
)

// xbandPredicate implements the IMAGINGRADIO success test: a symbol-rate/
// Eb-N0 link margin, with num_channels capping how many concurrent
// transmissions the receiver can demodulate this epoch. Same-frequency
// transmissions beyond the channel count collide and fail.
type xbandPredicate struct {
	symbolRateHz float64
	requiredEbN0 float64
	numChannels  int
}

// Evaluate implements radiosubstrate.SuccessPredicate.
func (p xbandPredicate) Evaluate(distanceM, frequencyHz float64, tx, rx radiosubstrate.PHYParams, interferersBefore int) bool {
	if distanceM <= 0 || frequencyHz <= 0 {
		return false
	}
	channels := p.numChannels
	if channels <= 0 {
		channels = 1
	}
	if interferersBefore >= channels {
		return false
	}

	pathLossDb := freeSpacePathLossDb(distanceM, frequencyHz)
	rxPowerDbm := tx.EffectiveEIRPDbm() - pathLossDb + rx.AntennaGainDbi - rx.LineLossDb

	rate := p.symbolRateHz
	if rate <= 0 {
		rate = rx.BandwidthHz
	}
	if rate <= 0 {
		rate = 1e6
	}
	// Eb/N0 = received power over noise spectral density, normalized by the
	// symbol rate.
	noiseDensityDbmHz := -174.0 + 3
	ebN0 := rxPowerDbm - noiseDensityDbmHz - 10*math.Log10(rate)

	return ebN0 >= p.requiredEbN0
}

// NewXBandFactory returns a registry.ModelFactory for IMAGINGRADIO,
// configured from the model spec's Extra: symbol_rate_hz, required_eb_n0_db
// (default 9.6, typical uncoded BPSK at 1e-5 BER), num_channels (default 1),
// plus the common PHY keys in helpers.go.
func NewXBandFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := radiosubstrate.Config{
			ClassName:  modelSpec.IName,
			Tag:        domain.TagImagingRadio,
			PHY:        commonPHY(extra),
			SelfCtrl:   extraBool(extra, "self_ctrl", false),
			TargetKind: targetKind(nodeSpec.Type, extra),
			Oracle:     deps.Oracle,
			Directory:  deps.Directory,
			Predicate: xbandPredicate{
				symbolRateHz: extraFloat(extra, "symbol_rate_hz", 0),
				requiredEbN0: extraFloat(extra, "required_eb_n0_db", 9.6),
				numChannels:  extraInt(extra, "num_channels", 1),
			},
			SimEpoch: deps.SimStart,
			DeltaSec: deps.SimDelta.Seconds(),
		}
		return radiosubstrate.NewRadio(cfg), nil
	}
}
