// Package radio supplies the concrete radio classes atop the generic
// internal/radio substrate: LoRa (BASICLORARADIO), X-band (IMAGINGRADIO),
// and inter-satellite links (ISL). Each factory here only parses its
// model-specific configuration and picks a SuccessPredicate; the queueing,
// FoV-gated or peer-list candidate discovery, and collision accounting all
// live in internal/radio. The shared substrate holds the queues and state;
// concrete classes supply a physical-layer predicate and a frequency set.
package radio

import (
	"github.com/orbsim/orbsim/internal/domain"
	radiosubstrate "github.com/orbsim/orbsim/internal/radio"
)

func extraFloat(extra map[string]any, key string, def float64) float64 {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

func extraInt(extra map[string]any, key string, def int) int {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func extraBool(extra map[string]any, key string, def bool) bool {
	if v, ok := extra[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func extraFloats(extra map[string]any, key string) []float64 {
	v, ok := extra[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := item.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

func extraInts(extra map[string]any, key string) []int {
	fs := extraFloats(extra, key)
	out := make([]int, 0, len(fs))
	for _, f := range fs {
		out = append(out, int(f))
	}
	return out
}

// defaultTargetKind picks the opposite-end candidate kind a FoV-gated radio
// queries by default, based on its owner's node kind: satellites look for
// ground stations, ground-bound nodes look for satellites. A model config's
// explicit "target_kind" key overrides this.
func defaultTargetKind(owner domain.NodeKind) domain.NodeKind {
	if owner == domain.NodeSAT {
		return domain.NodeGS
	}
	return domain.NodeSAT
}

func targetKind(owner domain.NodeKind, extra map[string]any) domain.NodeKind {
	if v, ok := extra["target_kind"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return domain.NodeKind(s)
		}
	}
	return defaultTargetKind(owner)
}

func commonPHY(extra map[string]any) radiosubstrate.PHYParams {
	return radiosubstrate.PHYParams{
		Frequencies:         extraFloats(extra, "frequencies"),
		BandwidthHz:         extraFloat(extra, "bandwidth_hz", 0),
		TxPowerDbm:          extraFloat(extra, "tx_power_dbm", 20),
		AntennaGainDbi:      extraFloat(extra, "antenna_gain_dbi", 0),
		LineLossDb:          extraFloat(extra, "line_loss_db", 0),
		GainOverTempDbK:     extraFloat(extra, "g_over_t_db_k", 0),
		BitsAllowedPerEpoch: extraInt(extra, "bits_allowed", 0),
		TxQueueCapacity:     extraInt(extra, "tx_queue_capacity", 0),
		RxQueueCapacity:     extraInt(extra, "rx_queue_capacity", 0),
	}
}
