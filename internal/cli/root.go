// Package cli implements the orbsim command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orbsim",
	Short: "orbsim - discrete-event space/ground network simulator",
	Long: `orbsim drives satellites, ground stations, and IoT devices through a
shared epoch-stepped simulation clock, modeling orbital geometry, radio
links, onboard power and compute, and store-and-forward data movement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go. Returns the process
// exit code: 0 on success, or the code the failing subcommand attached via
// withExitCode.
func Execute(version string) int {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if ec, ok := err.(*exitCodeError); ok {
			return ec.code
		}
		return 1
	}
	return 0
}

// exitCodeError carries a process exit code alongside the error Cobra
// prints, so runRun's caller can distinguish config/dependency/runtime
// failures without re-parsing the error text.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}
