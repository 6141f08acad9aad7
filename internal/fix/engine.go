// Package fix computes ranked counterfactual remedies for a failed gate.
// The ranking is a policy choice, not geometry: it lives in an explicit
// priority table keyed by gate name so it can be audited and extended
// without touching the math. All outputs are deterministic functions of
// the TaskSpec; nothing here mutates it.
package fix

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/taskgate/internal/gate"
	"github.com/fyrsmithlabs/taskgate/internal/geom"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// policyEntry is one candidate remedy for a gate, with the adjustment flag
// that must be set for it to apply.
type policyEntry struct {
	kind    Kind
	allowed func(a taskspec.AllowedAdjustments) bool
}

// priority lists candidate remedies best-first per gate. MOVE_TARGET ranks
// before MOVE_BASE on reachability: moving a stationary target is treated
// as a smaller structural change than relocating the acting constructor.
// CHANGE_CONSTRUCTOR is appended by the engine whenever the adjustment is
// allowed or no higher-ranked remedy applied, so the proposal list is
// never empty on a failed gate.
var priority = map[string][]policyEntry{
	gate.NameReachability: {
		{KindMoveTarget, func(a taskspec.AllowedAdjustments) bool { return a.CanMoveTarget }},
		{KindMoveBase, func(a taskspec.AllowedAdjustments) bool { return a.CanMoveBase }},
	},
	gate.NamePayload: {
		{KindSplitPayload, func(a taskspec.AllowedAdjustments) bool { return a.CanSplitPayload }},
	},
	gate.NameKeepout: {
		{KindMoveTarget, func(a taskspec.AllowedAdjustments) bool { return a.CanMoveTarget }},
	},
}

// Engine builds ranked fixes for a failing gate.
type Engine struct{}

// NewEngine returns a fix engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Propose returns the ordered, best-first remedies for the named failing
// gate. The slice is never empty: CHANGE_CONSTRUCTOR closes out the list
// when it is allowed or when no permitted adjustment produced a remedy.
func (e *Engine) Propose(spec *taskspec.TaskSpec, failedGate string) []Fix {
	var fixes []Fix
	for _, entry := range priority[failedGate] {
		if !entry.allowed(spec.AllowedAdjustments) {
			continue
		}
		fixes = append(fixes, buildFix(spec, failedGate, entry.kind))
	}
	if spec.AllowedAdjustments.CanChangeConstructor || len(fixes) == 0 {
		fixes = append(fixes, buildFix(spec, failedGate, KindChangeConstructor))
	}
	return fixes
}

func buildFix(spec *taskspec.TaskSpec, failedGate string, kind Kind) Fix {
	switch failedGate {
	case gate.NameReachability:
		return reachabilityFix(spec, kind)
	case gate.NamePayload:
		return payloadFix(spec, kind)
	case gate.NameKeepout:
		return keepoutFix(spec, kind)
	}
	// Unknown gates cannot occur: the pipeline and the priority table are
	// maintained together.
	panic(fmt.Sprintf("fix: no builder for gate %q", failedGate))
}

func reachabilityFix(spec *taskspec.TaskSpec, kind Kind) Fix {
	base := spec.Constructor.BasePose
	target := spec.Transformation.TargetPose
	maxReach := spec.Constructor.MaxReachM
	distance := geom.Distance(base, target)
	overshoot := distance - maxReach

	switch kind {
	case KindMoveTarget:
		projected := geom.ProjectOntoSphere(base, target, maxReach)
		return Fix{
			Type:  KindMoveTarget,
			Delta: geom.Round6(overshoot),
			Instruction: fmt.Sprintf(
				"Move target %.4f m closer to base (projected onto reach sphere).", overshoot),
			ProposedPatch: map[string]any{
				"projected_target_xyz": roundTriple(projected),
			},
		}
	case KindMoveBase:
		newBase := geom.PointToward(base, target, overshoot)
		return Fix{
			Type:  KindMoveBase,
			Delta: geom.Round6(overshoot),
			Instruction: fmt.Sprintf(
				"Move constructor base %.4f m toward target.", overshoot),
			ProposedPatch: map[string]any{
				"suggested_base_xyz": roundTriple(newBase),
			},
		}
	default:
		return Fix{
			Type:  KindChangeConstructor,
			Delta: geom.Round6(overshoot),
			Instruction: fmt.Sprintf(
				"Replace constructor with one whose max_reach_m >= %.4f m.", distance),
		}
	}
}

func payloadFix(spec *taskspec.TaskSpec, kind Kind) Fix {
	mass := spec.Substrate.MassKg
	limit := spec.Constructor.MaxPayloadKg

	if kind == KindSplitPayload {
		trips := int(math.Ceil(mass / limit))
		return Fix{
			Type:  KindSplitPayload,
			Delta: float64(trips - 1),
			Instruction: fmt.Sprintf(
				"Split payload into %d trips of <= %g kg each.", trips, limit),
			ProposedPatch: map[string]any{
				"suggested_payload_split_count": trips,
			},
		}
	}
	return Fix{
		Type:  KindChangeConstructor,
		Delta: geom.Round6(mass - limit),
		Instruction: fmt.Sprintf(
			"Replace constructor with one whose max_payload_kg >= %g kg.", mass),
	}
}

func keepoutFix(spec *taskspec.TaskSpec, kind Kind) Fix {
	zone, expanded := violatingZone(spec)
	escaped, delta := expanded.Escape(spec.Transformation.TargetPose)

	if kind == KindMoveTarget {
		return Fix{
			Type:  KindMoveTarget,
			Delta: geom.Round6(delta),
			Instruction: fmt.Sprintf(
				"Move target %.4f m to exit keepout zone %q (including %g m safety buffer).",
				delta, zone.ID, spec.Environment.SafetyBuffer),
			ProposedPatch: map[string]any{
				"projected_target_xyz": roundTriple(escaped),
			},
		}
	}
	return Fix{
		Type:  KindChangeConstructor,
		Delta: geom.Round6(delta),
		Instruction: fmt.Sprintf(
			"Replace constructor %q with one that can complete the task while the target stays %.4f m inside keepout zone %q.",
			spec.Constructor.ID, delta, zone.ID),
	}
}

// violatingZone returns the first zone, in declaration order, whose
// expanded box contains the target. The gate that failed used the same
// scan, so recomputing here reproduces its finding exactly.
func violatingZone(spec *taskspec.TaskSpec) (taskspec.KeepoutZone, geom.AABB) {
	target := spec.Transformation.TargetPose
	for _, zone := range spec.Environment.KeepoutZones {
		expanded := zone.Box().Expand(spec.Environment.SafetyBuffer)
		if expanded.Contains(target) {
			return zone, expanded
		}
	}
	panic("fix: keepout fix requested but no zone contains the target")
}

func roundTriple(v geom.Vec3) []float64 {
	return []float64{geom.Round6(v[0]), geom.Round6(v[1]), geom.Round6(v[2])}
}
