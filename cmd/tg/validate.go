package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

var validateCmd = &cobra.Command{
	Use:   "validate <task.yaml>",
	Short: "Validate a TaskSpec YAML against the schema without running gates",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read task file: %w", err)
	}
	if _, err := taskspec.Parse(data); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}
