package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/sweep"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

var (
	sweepWorkers int
	sweepOut     string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <sweep.yaml>",
	Short: "Generate seeded task variants and summarize the capability envelope",
	Long: `Sweep reads a request file describing a base task, variation ranges,
a variant count, and a seed, then evaluates every variant through the
gate pipeline. The same request always produces the same variants and
the same summary.

Request file format:

  base_file: examples/pick_place_can.yaml
  variations:
    mass_kg: {min: 0.1, max: 8.0}
    target_xyz:
      x: {min: 0.5, max: 3.0}
  n: 50
  seed: 1337`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "number of variants evaluated concurrently")
	sweepCmd.Flags().StringVarP(&sweepOut, "out", "o", "", "optional directory for per-variant evidence packets")
}

// sweepFile is the on-disk request format. The base task may be inline or
// referenced by path; paths are resolved relative to the request file.
type sweepFile struct {
	BaseFile   string           `yaml:"base_file"`
	Base       yaml.Node        `yaml:"base"`
	Variations sweep.Variations `yaml:"variations"`
	N          int              `yaml:"n"`
	Seed       int64            `yaml:"seed"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read sweep file: %w", err)
	}
	var req sweepFile
	if err := yaml.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse sweep file: %w", err)
	}

	base, err := loadBase(&req, filepath.Dir(args[0]))
	if err != nil {
		return err
	}

	sampler := sweep.NewSampler(evidence.NewEvaluator(), sweepWorkers)
	result, err := sampler.Run(cmd.Context(), &sweep.Request{
		Base:       base,
		Variations: req.Variations,
		N:          req.N,
		Seed:       req.Seed,
	})
	if err != nil {
		return err
	}

	if sweepOut != "" {
		for _, packet := range result.Packets {
			if _, err := evidence.WriteFile(packet, sweepOut); err != nil {
				return err
			}
		}
	}

	printSummary(result.Summary, req.N, req.Seed)
	return nil
}

func loadBase(req *sweepFile, dir string) (*taskspec.TaskSpec, error) {
	if req.BaseFile != "" {
		path := req.BaseFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read base task: %w", err)
		}
		return taskspec.Parse(data)
	}
	if !req.Base.IsZero() {
		raw, err := yaml.Marshal(&req.Base)
		if err != nil {
			return nil, fmt.Errorf("re-encode inline base task: %w", err)
		}
		return taskspec.Parse(raw)
	}
	return nil, fmt.Errorf("sweep file needs base_file or an inline base task")
}

func printSummary(sum sweep.Summary, n int, seed int64) {
	fmt.Printf("Sweep: n=%d seed=%d\n", n, seed)
	fmt.Printf("  CAN:       %d\n", sum.CanCount)
	fmt.Printf("  HARD_CANT: %d\n", sum.HardCantCount)

	fmt.Println("  By failed gate:")
	for _, name := range sweep.FailedGateNames() {
		if count, ok := sum.ByFailedGate[name]; ok {
			fmt.Printf("    %-15s %d\n", name, count)
		}
	}

	if len(sum.TopReasonCodes) > 0 {
		fmt.Println("  Top reason codes:")
		for _, rc := range sum.TopReasonCodes {
			fmt.Printf("    %-20s %d\n", rc.ReasonCode, rc.Count)
		}
	}
}
