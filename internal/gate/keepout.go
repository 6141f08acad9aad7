package gate

import (
	"github.com/fyrsmithlabs/taskgate/internal/geom"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// keepoutGate checks that the target pose lies outside every keepout zone
// after each zone is expanded by the safety buffer. Zones are tested in
// declaration order and the first violation is reported; that is a
// reporting convention, not a ranking.
type keepoutGate struct{}

func (keepoutGate) Name() string { return NameKeepout }

func (keepoutGate) Evaluate(spec *taskspec.TaskSpec) Result {
	target := spec.Transformation.TargetPose
	buffer := spec.Environment.SafetyBuffer

	for _, zone := range spec.Environment.KeepoutZones {
		expanded := zone.Box().Expand(buffer)
		if !expanded.Contains(target) {
			continue
		}
		_, delta := expanded.Escape(target)
		return Result{
			GateName: NameKeepout,
			Status:   StatusFail,
			MeasuredValues: map[string]any{
				"violating_zone_id": zone.ID,
				"target_xyz":        roundTriple(target),
				"zone_min_xyz":      roundTriple(zone.Min),
				"zone_max_xyz":      roundTriple(zone.Max),
				"safety_buffer_m":   buffer,
				"escape_delta_m":    geom.Round6(delta),
			},
			ReasonCode: ReasonInKeepoutZone,
		}
	}

	return Result{
		GateName: NameKeepout,
		Status:   StatusPass,
		MeasuredValues: map[string]any{
			"keepout_zones_checked": len(spec.Environment.KeepoutZones),
		},
	}
}

func roundTriple(v geom.Vec3) []float64 {
	return []float64{geom.Round6(v[0]), geom.Round6(v[1]), geom.Round6(v[2])}
}
