// Package evidence assembles the immutable record of a single feasibility
// evaluation: the executed gate results, the verdict, and the ranked
// counterfactual fixes when the verdict is HARD_CANT. Assembly is pure;
// the wall clock is injected so tests can pin created_at.
package evidence

import (
	"time"

	"github.com/fyrsmithlabs/taskgate/internal/fix"
	"github.com/fyrsmithlabs/taskgate/internal/gate"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// Version is the evidence packet schema tag.
const Version = "0.1.0"

// Verdict is the overall feasibility outcome.
type Verdict string

const (
	// VerdictCan means every executed gate passed.
	VerdictCan Verdict = "CAN"
	// VerdictHardCant means a gate failed; FailedGate names it.
	VerdictHardCant Verdict = "HARD_CANT"
)

// Packet is the structured output of one evaluation. It is built once and
// never modified afterwards.
type Packet struct {
	TaskID              string        `json:"task_id"`
	Verdict             Verdict       `json:"verdict"`
	FailedGate          string        `json:"failed_gate,omitempty"`
	Checks              []gate.Result `json:"checks"`
	CounterfactualFixes []fix.Fix     `json:"counterfactual_fixes"`
	CreatedAt           string        `json:"created_at"`
	Version             string        `json:"version"`
}

// TopFix returns the best-ranked fix, or nil for a CAN verdict.
func (p *Packet) TopFix() *fix.Fix {
	if len(p.CounterfactualFixes) == 0 {
		return nil
	}
	return &p.CounterfactualFixes[0]
}

// Evaluator runs the gate pipeline and, on failure, the fix engine, and
// packages the outcome.
type Evaluator struct {
	pipeline *gate.Pipeline
	engine   *fix.Engine
	now      func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock replaces the wall clock. Tests use this to make created_at
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator returns an evaluator over the standard gate pipeline.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		pipeline: gate.NewPipeline(),
		engine:   fix.NewEngine(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the short-circuiting pipeline over a validated spec and
// assembles the packet. Counterfactual fixes are present exactly when the
// verdict is HARD_CANT.
func (e *Evaluator) Evaluate(spec *taskspec.TaskSpec) *Packet {
	checks, failedGate := e.pipeline.Run(spec)

	p := &Packet{
		TaskID:              spec.TaskID,
		Verdict:             VerdictCan,
		Checks:              checks,
		CounterfactualFixes: []fix.Fix{},
		CreatedAt:           e.now().UTC().Format(time.RFC3339Nano),
		Version:             Version,
	}
	if failedGate != "" {
		p.Verdict = VerdictHardCant
		p.FailedGate = failedGate
		p.CounterfactualFixes = e.engine.Propose(spec, failedGate)
	}
	return p
}
