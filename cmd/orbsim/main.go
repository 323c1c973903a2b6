// Package main is the single-binary entrypoint for orbsim.
package main

import (
	"os"

	"github.com/orbsim/orbsim/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
