// Package gate implements the ordered feasibility checks a task must pass.
// Each gate measures one quantity against one declared limit; evaluation
// is a total function over a validated TaskSpec and can never error. The
// pipeline runs gates in a fixed order and stops at the first failure, so
// a single evaluation reports exactly one failure.
package gate

import "github.com/fyrsmithlabs/taskgate/internal/taskspec"

// Gate is a single named feasibility check.
type Gate interface {
	Name() string
	Evaluate(spec *taskspec.TaskSpec) Result
}

// Pipeline is an explicit ordered list of gates with short-circuit
// semantics.
type Pipeline struct {
	gates []Gate
}

// NewPipeline returns the standard pipeline: reachability, payload,
// keepout.
func NewPipeline() *Pipeline {
	return &Pipeline{
		gates: []Gate{
			reachabilityGate{},
			payloadGate{},
			keepoutGate{},
		},
	}
}

// Run evaluates gates in order, stopping at the first failure. It returns
// the results of the gates that actually ran and the name of the failing
// gate, or "" when every gate passed.
func (p *Pipeline) Run(spec *taskspec.TaskSpec) ([]Result, string) {
	results := make([]Result, 0, len(p.gates))
	for _, g := range p.gates {
		r := g.Evaluate(spec)
		results = append(results, r)
		if r.Failed() {
			return results, r.GateName
		}
	}
	return results, ""
}
