package sweep

import (
	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// Range is a closed interval a varied field is drawn from.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// AxisRanges optionally varies individual target coordinates.
type AxisRanges struct {
	X *Range `json:"x,omitempty" yaml:"x,omitempty"`
	Y *Range `json:"y,omitempty" yaml:"y,omitempty"`
	Z *Range `json:"z,omitempty" yaml:"z,omitempty"`
}

// Variations maps variable names to ranges. A nil field is not varied and
// keeps the base spec's value.
type Variations struct {
	MassKg    *Range      `json:"mass_kg,omitempty" yaml:"mass_kg,omitempty"`
	TargetXYZ *AxisRanges `json:"target_xyz,omitempty" yaml:"target_xyz,omitempty"`
}

// Request describes one sweep: a base task, what to vary, how many
// variants, and the seed that makes the draw sequence reproducible.
type Request struct {
	Base       *taskspec.TaskSpec
	Variations Variations
	N          int
	Seed       int64
}

// ReasonCount is one entry of the ranked reason-code frequency list.
type ReasonCount struct {
	ReasonCode string `json:"reason_code"`
	Count      int    `json:"count"`
}

// Summary aggregates gate outcomes across all variants of a sweep.
type Summary struct {
	CanCount       int            `json:"can_count"`
	HardCantCount  int            `json:"hard_cant_count"`
	ByFailedGate   map[string]int `json:"by_failed_gate"`
	TopReasonCodes []ReasonCount  `json:"top_reason_codes"`
}

// Result is a completed sweep: one packet per variant, in variant order,
// plus the streaming aggregate.
type Result struct {
	Packets []*evidence.Packet
	Summary Summary
}
