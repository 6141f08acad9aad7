// Package sweep generates task variants from seeded ranges, drives the
// gate pipeline across them, and aggregates the outcomes into a
// capability-envelope summary.
//
// Determinism contract: variant generation uses a single math/rand
// generator seeded from the request, with a fixed per-variant draw order
// (mass, then target x, y, z). The same request therefore always yields
// the same variant sequence. Evaluation may run on several workers, but
// results are stored by variant index, so the output is independent of
// scheduling. Each sweep owns its generator; nothing is shared between
// concurrent sweeps.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/gate"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// ErrInvalidRange marks a sweep request whose ranges cannot produce valid
// variants. Detected once at setup; the whole sweep aborts.
var ErrInvalidRange = errors.New("invalid sweep range")

// Sampler runs sweeps against a shared, stateless evaluator.
type Sampler struct {
	eval    *evidence.Evaluator
	workers int
}

// NewSampler returns a sampler evaluating up to workers variants
// concurrently. workers <= 0 selects GOMAXPROCS.
func NewSampler(eval *evidence.Evaluator, workers int) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{eval: eval, workers: workers}
}

// ValidateRequest checks the sweep setup: a positive variant count and
// ranges that are ordered and cannot generate an invalid TaskSpec.
func ValidateRequest(req *Request) error {
	if req.Base == nil {
		return fmt.Errorf("%w: base task is required", ErrInvalidRange)
	}
	if req.N <= 0 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidRange, req.N)
	}
	if r := req.Variations.MassKg; r != nil {
		if err := checkRange("mass_kg", r); err != nil {
			return err
		}
		if r.Min < 0 {
			return fmt.Errorf("%w: mass_kg.min must be non-negative, got %g", ErrInvalidRange, r.Min)
		}
	}
	if ax := req.Variations.TargetXYZ; ax != nil {
		for _, c := range []struct {
			name string
			r    *Range
		}{{"target_xyz.x", ax.X}, {"target_xyz.y", ax.Y}, {"target_xyz.z", ax.Z}} {
			if c.r == nil {
				continue
			}
			if err := checkRange(c.name, c.r); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkRange(name string, r *Range) error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: %s min %g > max %g", ErrInvalidRange, name, r.Min, r.Max)
	}
	return nil
}

// GenerateVariants deterministically derives the N variant specs from the
// request. Each variant is a validated clone of the base with the varied
// fields redrawn and a positional task id suffix.
func GenerateVariants(req *Request) ([]*taskspec.TaskSpec, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	variants := make([]*taskspec.TaskSpec, 0, req.N)

	for i := 0; i < req.N; i++ {
		v := req.Base.Clone()
		v.TaskID = fmt.Sprintf("%s-sweep-%04d", req.Base.TaskID, i)

		// Draw order is part of the determinism contract: mass, x, y, z.
		if r := req.Variations.MassKg; r != nil {
			v.Substrate.MassKg = uniform(rng, r)
		}
		if ax := req.Variations.TargetXYZ; ax != nil {
			if ax.X != nil {
				v.Transformation.TargetPose[0] = uniform(rng, ax.X)
			}
			if ax.Y != nil {
				v.Transformation.TargetPose[1] = uniform(rng, ax.Y)
			}
			if ax.Z != nil {
				v.Transformation.TargetPose[2] = uniform(rng, ax.Z)
			}
		}

		if err := taskspec.Validate(v); err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func uniform(rng *rand.Rand, r *Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Run generates the variants, evaluates each through the full
// validate-gate-fix sequence, and reduces the outcomes. Packets come back
// in variant order regardless of worker scheduling.
func (s *Sampler) Run(ctx context.Context, req *Request) (*Result, error) {
	variants, err := GenerateVariants(req)
	if err != nil {
		return nil, err
	}

	packets := make([]*evidence.Packet, len(variants))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			packets[i] = s.eval.Evaluate(v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Packets: packets, Summary: summarize(packets)}, nil
}

// summarize is a streaming reduction over packets in variant order. The
// reason-code ranking is by descending count with first-seen order
// breaking ties.
func summarize(packets []*evidence.Packet) Summary {
	sum := Summary{
		ByFailedGate:   map[string]int{},
		TopReasonCodes: []ReasonCount{},
	}
	firstSeen := map[string]int{}

	var reasons []ReasonCount
	for _, p := range packets {
		if p.Verdict == evidence.VerdictCan {
			sum.CanCount++
		} else {
			sum.HardCantCount++
		}
		if p.FailedGate != "" {
			sum.ByFailedGate[p.FailedGate]++
		}
		for _, check := range p.Checks {
			if check.ReasonCode == "" {
				continue
			}
			idx, ok := firstSeen[check.ReasonCode]
			if !ok {
				idx = len(reasons)
				firstSeen[check.ReasonCode] = idx
				reasons = append(reasons, ReasonCount{ReasonCode: check.ReasonCode})
			}
			reasons[idx].Count++
		}
	}

	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Count > reasons[j].Count
	})
	if len(reasons) > 0 {
		sum.TopReasonCodes = reasons
	}
	return sum
}

// FailedGateNames returns the fixed gate vocabulary a summary can contain.
// Exposed for UI/reporting layers that want stable column sets.
func FailedGateNames() []string {
	return []string{gate.NameReachability, gate.NamePayload, gate.NameKeepout}
}
