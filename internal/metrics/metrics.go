// Package metrics defines the simulator's Prometheus metrics: registry
// lookup failures, epochs run, packets delivered/dropped by reason, and
// energy consumed by tag. One package-level var per metric, namespaced,
// registered at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryLookupFailures counts failed Capability Registry lookups by kind
// ("node"/"model") and the class name that failed to resolve.
var RegistryLookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "registry_lookup_failures_total",
	Help:      "Total Capability Registry lookup failures by kind and class.",
}, []string{"kind", "class"})

// EpochsRun counts epochs the Manager has advanced, across all scenarios run
// in this process.
var EpochsRun = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "epochs_run_total",
	Help:      "Total epochs advanced by the Manager.",
})

// PacketsDelivered counts successful radio deliveries by capability tag.
var PacketsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "packets_delivered_total",
	Help:      "Total packets successfully delivered, by radio capability tag.",
}, []string{"tag"})

// PacketsDropped counts dropped packets by drop reason.
var PacketsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "packets_dropped_total",
	Help:      "Total dropped packets, by drop reason.",
}, []string{"reason"})

// EnergyConsumedJoules accumulates joules debited from POWER models by
// consumption tag.
var EnergyConsumedJoules = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "energy_consumed_joules_total",
	Help:      "Total joules consumed, by consumption tag.",
}, []string{"tag"})

// ImagesTaken counts successful image captures by owning node id.
var ImagesTaken = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "images_taken_total",
	Help:      "Total images captured, by owning node id.",
}, []string{"node"})

// ControlPlaneCalls counts runtime control-plane dispatches by method name
// and outcome ("ok"/"error").
var ControlPlaneCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "orbsim",
	Name:      "controlplane_calls_total",
	Help:      "Total runtime control-plane calls, by method and outcome.",
}, []string{"method", "outcome"})
