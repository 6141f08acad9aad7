package gate

import (
	"github.com/fyrsmithlabs/taskgate/internal/geom"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

// reachabilityGate checks that the target pose lies within the
// constructor's reach sphere.
type reachabilityGate struct{}

func (reachabilityGate) Name() string { return NameReachability }

func (reachabilityGate) Evaluate(spec *taskspec.TaskSpec) Result {
	distance := geom.Distance(spec.Constructor.BasePose, spec.Transformation.TargetPose)

	r := Result{
		GateName: NameReachability,
		Status:   StatusPass,
		MeasuredValues: map[string]any{
			"distance_m":  geom.Round6(distance),
			"max_reach_m": spec.Constructor.MaxReachM,
		},
	}
	if distance > spec.Constructor.MaxReachM {
		r.Status = StatusFail
		r.ReasonCode = ReasonOutOfReach
	}
	return r
}
