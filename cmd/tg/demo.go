package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

var (
	demoExamples string
	demoOut      string
)

// demoYAMLs are the bundled scenarios, one per verdict/gate combination.
var demoYAMLs = []string{
	"pick_place_can.yaml",
	"pick_place_cant_reach.yaml",
	"pick_place_cant_payload.yaml",
	"pick_place_cant_keepout.yaml",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the bundled example tasks and print a summary table",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoExamples, "examples", "examples", "directory holding the bundled example YAMLs")
	demoCmd.Flags().StringVarP(&demoOut, "out", "o", "out", "output directory for evidence packets")
}

func runDemo(cmd *cobra.Command, args []string) error {
	if info, err := os.Stat(demoExamples); err != nil || !info.IsDir() {
		return fmt.Errorf("examples directory not found: %s", demoExamples)
	}

	eval := evidence.NewEvaluator()

	fmt.Printf("  %-35s %-12s %-15s %s\n", "FILE", "VERDICT", "FAILED_GATE", "TOP_FIX")
	for _, name := range demoYAMLs {
		data, err := os.ReadFile(filepath.Join(demoExamples, name))
		if err != nil {
			return fmt.Errorf("read example %s: %w", name, err)
		}
		spec, err := taskspec.Parse(data)
		if err != nil {
			return fmt.Errorf("example %s: %w", name, err)
		}
		packet := eval.Evaluate(spec)
		if _, err := evidence.WriteFile(packet, demoOut); err != nil {
			return err
		}

		gate := "-"
		if packet.FailedGate != "" {
			gate = packet.FailedGate
		}
		topFix := "-"
		if top := packet.TopFix(); top != nil {
			topFix = string(top.Type)
		}
		fmt.Printf("  %-35s %-12s %-15s %s\n", name, packet.Verdict, gate, topFix)
	}

	fmt.Printf("\nEvidence written to: %s/\n", demoOut)
	return nil
}
