// Package manager implements the Manager / epoch scheduler: it drives every
// topology's nodes through Advance() at a fixed epoch delta from t_start to
// t_end, in sequential mode by default or fanned out across a bounded
// worker pool in parallel mode, draining the runtime control plane's call
// queue at each epoch boundary.
package manager

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/metrics"
	"github.com/orbsim/orbsim/internal/orchestrator"
)

// Config carries the Manager's construction-time parameters.
type Config struct {
	Result     *orchestrator.Result
	DeltaSec   float64
	EpochCount int // number of epochs to advance, per domain.EpochCount
	Parallel   bool
	MaxWorkers int
	// DrainCallQueue runs at every epoch boundary (after every topology has
	// advanced), giving the control plane a chance to apply queued runtime
	// API calls against a quiescent node graph.
	DrainCallQueue func(epochTime float64)
}

// Manager drives the fixed-epoch simulation loop.
type Manager struct {
	cfg       Config
	terminate atomic.Bool

	epochsRun int
}

// New builds a Manager from cfg.
func New(cfg Config) *Manager {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	return &Manager{cfg: cfg}
}

// Stop requests the Manager halt at the next epoch boundary. Safe to call
// concurrently with Run.
func (m *Manager) Stop() { m.terminate.Store(true) }

// EpochsRun reports how many epochs Run has completed so far.
func (m *Manager) EpochsRun() int { return m.epochsRun }

// Run advances every topology from epoch 0 through cfg.EpochCount-1 at
// cfg.DeltaSec, returning nil on normal completion, ctx.Err() on external
// cancellation, a *domain.FatalRuntimeError if an invariant is violated
// mid-run, or the first error a node's Advance returns, wrapped with its
// topology name and node id.
func (m *Manager) Run(ctx context.Context) error {
	lastEpochTime := -1.0
	for epoch := 0; epoch < m.cfg.EpochCount; epoch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if m.terminate.Load() {
			return nil
		}

		epochTime := float64(epoch) * m.cfg.DeltaSec
		if epochTime <= lastEpochTime {
			return &domain.FatalRuntimeError{Epoch: epoch, Reason: "simulated time failed to advance monotonically"}
		}
		lastEpochTime = epochTime

		if err := m.advanceEpoch(ctx, epochTime); err != nil {
			return err
		}

		if m.cfg.DrainCallQueue != nil {
			m.cfg.DrainCallQueue(epochTime)
		}

		metrics.EpochsRun.Inc()
		m.epochsRun++
	}
	return nil
}

// advanceEpoch runs every topology's nodes once at epochTime: sequentially
// (topology order, then node declaration order) by default, or, when
// cfg.Parallel is set, fanned out one goroutine per topology bounded by
// cfg.MaxWorkers via an errgroup.Group. Either way this call is itself the
// epoch-end barrier: it returns only once every topology has finished
// advancing.
func (m *Manager) advanceEpoch(ctx context.Context, epochTime float64) error {
	if !m.cfg.Parallel {
		for _, topo := range m.cfg.Result.Topologies {
			if err := advanceTopology(topo, epochTime); err != nil {
				return err
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxWorkers)
	for _, topo := range m.cfg.Result.Topologies {
		topo := topo
		g.Go(func() error {
			return advanceTopology(topo, epochTime)
		})
	}
	return g.Wait()
}

func advanceTopology(topo orchestrator.Topology, epochTime float64) error {
	for _, node := range topo.Nodes {
		if err := node.Advance(epochTime); err != nil {
			return fmt.Errorf("topology %q node %d: %w", topo.Name, node.ID(), err)
		}
	}
	return nil
}
