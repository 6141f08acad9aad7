package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

var runOut string

var runCmd = &cobra.Command{
	Use:   "run <task.yaml>",
	Short: "Run feasibility gates on a TaskSpec YAML and emit an EvidencePacket",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runOut, "out", "o", "out", "output directory for evidence packets")
}

func runRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}
	spec, err := taskspec.Parse(data)
	if err != nil {
		return err
	}

	packet := evidence.NewEvaluator().Evaluate(spec)
	path, err := evidence.WriteFile(packet, runOut)
	if err != nil {
		return err
	}

	if packet.Verdict == evidence.VerdictCan {
		fmt.Println("CAN: all gates passed")
		fmt.Printf("Evidence: %s\n", path)
		return nil
	}

	reason := "unknown"
	for _, check := range packet.Checks {
		if check.ReasonCode != "" {
			reason = check.ReasonCode
			break
		}
	}
	hint := "no fix available"
	if top := packet.TopFix(); top != nil {
		hint = top.Instruction
	}
	fmt.Printf("HARD_CANT: %s - %s\n", reason, hint)
	fmt.Printf("Evidence: %s\n", path)
	return errHardCant
}
