package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbsim/orbsim/internal/catalog"
	"github.com/orbsim/orbsim/internal/config"
	"github.com/orbsim/orbsim/internal/controlplane"
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/logging"
	"github.com/orbsim/orbsim/internal/manager"
	"github.com/orbsim/orbsim/internal/metrics"
	"github.com/orbsim/orbsim/internal/oracle"
	"github.com/orbsim/orbsim/internal/orchestrator"
	"github.com/orbsim/orbsim/internal/registry"
)

// Process exit codes.
const (
	exitOK                   = 0
	exitConfigError          = 2
	exitDependencyResolution = 3
	exitRuntimeFatal         = 4
)

func init() {
	runCmd.Flags().StringVar(&runScenarioPath, "scenario", "", "path to the scenario JSON file (required)")
	runCmd.Flags().StringVar(&runEngineConfigPath, "engine-config", "", "path to engine.toml (defaults to $ORBSIM_HOME/engine.toml)")
	runCmd.Flags().BoolVar(&runControlPlane, "control-plane", false, "start the runtime control-plane HTTP server (overrides engine.toml)")
	_ = runCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(runCmd)
}

var (
	runScenarioPath     string
	runEngineConfigPath string
	runControlPlane     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario to completion",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	engineCfg, err := config.LoadEngineConfig(runEngineConfigPath)
	if err != nil {
		return withExitCode(exitConfigError, fmt.Errorf("load engine config: %w", err))
	}
	if runControlPlane {
		engineCfg.ControlPlane.Enabled = true
	}

	scenario, err := config.LoadScenario(runScenarioPath)
	if err != nil {
		return withExitCode(exitConfigError, err)
	}

	handler := scenario.LogSetup.LogHandler
	if handler == "" {
		handler = engineCfg.Logging.Handler
	}
	rawSink, closeSink, err := logging.NewFromHandler(handler, engineCfg.Logging.SQLitePath)
	if err != nil {
		return withExitCode(exitConfigError, fmt.Errorf("build log sink: %w", err))
	}
	sink := logging.NewAsyncSink(rawSink, engineCfg.Logging.AsyncBuffer, nil)
	defer func() {
		sink.Close()
		_ = closeSink()
	}()

	reg := registry.New(func(kind, class string) {
		metrics.RegistryLookupFailures.WithLabelValues(kind, class).Inc()
	})
	catalog.Register(reg)

	deps := registry.Deps{
		Oracle:    oracle.New(),
		Directory: catalog.BuildDirectory(scenario),
		SimStart:  scenario.SimTime.StartTime.Time,
		SimEnd:    scenario.SimTime.EndTime.Time,
		SimDelta:  time.Duration(scenario.SimTime.Delta * float64(time.Second)),
	}

	result, err := orchestrator.Build(scenario, reg, deps, sink.Write)
	if err != nil {
		return withExitCode(classifyBuildError(err), err)
	}

	var gateway *controlplane.Gateway
	var httpServer *http.Server
	if engineCfg.ControlPlane.Enabled {
		gateway = controlplane.NewGateway(result)
		srv := controlplane.NewServer(gateway)
		httpServer = &http.Server{Addr: engineCfg.ControlPlane.BindAddress, Handler: srv.Handler()}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "control plane: %v\n", err)
			}
		}()
		fmt.Printf("orbsim control plane listening on http://%s\n", engineCfg.ControlPlane.BindAddress)
	}

	epochCount := domain.EpochCount(deps.SimStart, deps.SimEnd, scenario.SimTime.Delta)
	mgrCfg := manager.Config{
		Result:     result,
		DeltaSec:   scenario.SimTime.Delta,
		EpochCount: epochCount,
		Parallel:   engineCfg.Manager.Parallel,
		MaxWorkers: engineCfg.Manager.MaxWorkers,
	}
	if gateway != nil {
		mgrCfg.DrainCallQueue = gateway.Drain
	}
	mgr := manager.New(mgrCfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()

	runErr := mgr.Run(ctx)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return withExitCode(classifyRunError(runErr), runErr)
	}

	fmt.Printf("orbsim: completed %d epochs across %d topologies\n", mgr.EpochsRun(), len(result.Topologies))
	return nil
}

// classifyBuildError maps an orchestrator.Build failure to an exit code:
// malformed/unresolvable scenarios are config errors,
// dependency-graph failures (missing capability, owner mismatch, cycle,
// band conflict) are dependency-resolution errors.
func classifyBuildError(err error) int {
	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	var ownerErr *domain.UnsupportedOwnerError
	var depErr *domain.UnsatisfiedDependencyError
	var cycErr *domain.CyclicDependencyError
	var bandErr *domain.DuplicateRadioBandError
	if errors.As(err, &ownerErr) || errors.As(err, &depErr) || errors.As(err, &cycErr) || errors.As(err, &bandErr) {
		return exitDependencyResolution
	}
	return exitConfigError
}

// classifyRunError maps a Manager.Run failure to an exit code. Beyond
// ctx.Err(), which runRun already filters out, Run returns either a
// FatalRuntimeError or a wrapped model Advance error; both map to
// exitRuntimeFatal.
func classifyRunError(err error) int {
	var fatalErr *domain.FatalRuntimeError
	if errors.As(err, &fatalErr) {
		return exitRuntimeFatal
	}
	return exitRuntimeFatal
}
