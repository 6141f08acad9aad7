// Package main implements tg, the taskgate CLI. It evaluates TaskSpec
// YAML files locally, without a running daemon, and preserves the exit
// contract automation relies on: CAN exits 0, HARD_CANT exits 1.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// errHardCant signals a completed evaluation whose verdict was HARD_CANT.
// The run output has already been printed; main only converts it into the
// exit code.
var errHardCant = errors.New("verdict: HARD_CANT")

var rootCmd = &cobra.Command{
	Use:     "tg",
	Short:   "Deterministic physical-task feasibility gate linter",
	Long:    "tg runs a TaskSpec YAML through the feasibility gate pipeline and emits an EvidencePacket.",
	Version: version,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errHardCant) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
