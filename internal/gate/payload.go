package gate

import "github.com/fyrsmithlabs/taskgate/internal/taskspec"

// payloadGate checks that the substrate mass is within the constructor's
// payload limit.
type payloadGate struct{}

func (payloadGate) Name() string { return NamePayload }

func (payloadGate) Evaluate(spec *taskspec.TaskSpec) Result {
	mass := spec.Substrate.MassKg
	limit := spec.Constructor.MaxPayloadKg

	r := Result{
		GateName: NamePayload,
		Status:   StatusPass,
		MeasuredValues: map[string]any{
			"mass_kg":        mass,
			"max_payload_kg": limit,
		},
	}
	if mass > limit {
		r.Status = StatusFail
		r.ReasonCode = ReasonOverPayload
	}
	return r
}
