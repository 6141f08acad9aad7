package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskgate/internal/geom"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

func baseSpec() *taskspec.TaskSpec {
	return &taskspec.TaskSpec{
		TaskID: "gate-test",
		Substrate: taskspec.Substrate{
			ID:          "can",
			MassKg:      0.35,
			InitialPose: geom.Vec3{0.4, 0, 0.1},
		},
		Transformation: taskspec.Transformation{
			TargetPose: geom.Vec3{0.9, 0.2, 0.1},
			ToleranceM: 0.01,
		},
		Constructor: taskspec.Constructor{
			ID:           "arm",
			BasePose:     geom.Vec3{0, 0, 0},
			MaxReachM:    1.3,
			MaxPayloadKg: 5.0,
		},
		Environment: taskspec.Environment{
			SafetyBuffer: 0.02,
		},
	}
}

func TestReachabilityGate(t *testing.T) {
	g := reachabilityGate{}

	t.Run("pass within reach", func(t *testing.T) {
		r := g.Evaluate(baseSpec())
		assert.Equal(t, StatusPass, r.Status)
		assert.Empty(t, r.ReasonCode)
		assert.Equal(t, 1.3, r.MeasuredValues["max_reach_m"])
	})

	t.Run("pass exactly at boundary", func(t *testing.T) {
		spec := baseSpec()
		spec.Transformation.TargetPose = geom.Vec3{1.3, 0, 0}
		r := g.Evaluate(spec)
		assert.Equal(t, StatusPass, r.Status)
	})

	t.Run("fail out of reach", func(t *testing.T) {
		spec := baseSpec()
		spec.Transformation.TargetPose = geom.Vec3{2, 0, 0}
		r := g.Evaluate(spec)
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, ReasonOutOfReach, r.ReasonCode)
		assert.Equal(t, 2.0, r.MeasuredValues["distance_m"])
	})
}

func TestPayloadGate(t *testing.T) {
	g := payloadGate{}

	t.Run("pass under limit", func(t *testing.T) {
		r := g.Evaluate(baseSpec())
		assert.Equal(t, StatusPass, r.Status)
	})

	t.Run("pass exactly at limit", func(t *testing.T) {
		spec := baseSpec()
		spec.Substrate.MassKg = 5.0
		r := g.Evaluate(spec)
		assert.Equal(t, StatusPass, r.Status)
	})

	t.Run("fail over limit", func(t *testing.T) {
		spec := baseSpec()
		spec.Substrate.MassKg = 12.0
		r := g.Evaluate(spec)
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, ReasonOverPayload, r.ReasonCode)
		assert.Equal(t, 12.0, r.MeasuredValues["mass_kg"])
	})
}

func TestKeepoutGate(t *testing.T) {
	g := keepoutGate{}

	zone := taskspec.KeepoutZone{
		ID:  "guard",
		Min: geom.Vec3{0.7, -0.1, 0},
		Max: geom.Vec3{1.1, 0.3, 0.4},
	}

	t.Run("pass with no zones", func(t *testing.T) {
		r := g.Evaluate(baseSpec())
		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, 0, r.MeasuredValues["keepout_zones_checked"])
	})

	t.Run("fail inside zone", func(t *testing.T) {
		spec := baseSpec()
		spec.Environment.KeepoutZones = []taskspec.KeepoutZone{zone}
		r := g.Evaluate(spec)
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, ReasonInKeepoutZone, r.ReasonCode)
		assert.Equal(t, "guard", r.MeasuredValues["violating_zone_id"])
		assert.Positive(t, r.MeasuredValues["escape_delta_m"])
	})

	t.Run("buffer expansion catches near misses", func(t *testing.T) {
		spec := baseSpec()
		spec.Environment.KeepoutZones = []taskspec.KeepoutZone{zone}
		// 0.01 outside the box proper but inside the 0.02 buffer.
		spec.Transformation.TargetPose = geom.Vec3{1.11, 0.1, 0.2}
		r := g.Evaluate(spec)
		assert.Equal(t, StatusFail, r.Status)
	})

	t.Run("pass outside buffered zone", func(t *testing.T) {
		spec := baseSpec()
		spec.Environment.KeepoutZones = []taskspec.KeepoutZone{zone}
		spec.Transformation.TargetPose = geom.Vec3{1.2, 0.1, 0.2}
		r := g.Evaluate(spec)
		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, 1, r.MeasuredValues["keepout_zones_checked"])
	})

	t.Run("first declared zone wins", func(t *testing.T) {
		spec := baseSpec()
		spec.Environment.KeepoutZones = []taskspec.KeepoutZone{
			{ID: "a", Min: geom.Vec3{0.8, 0, 0}, Max: geom.Vec3{1, 0.4, 0.4}},
			{ID: "b", Min: geom.Vec3{0.7, -0.1, 0}, Max: geom.Vec3{1.1, 0.3, 0.4}},
		}
		r := g.Evaluate(spec)
		assert.Equal(t, "a", r.MeasuredValues["violating_zone_id"])
	})
}

func TestPipelineOrderAndShortCircuit(t *testing.T) {
	p := NewPipeline()

	t.Run("all pass runs every gate", func(t *testing.T) {
		results, failed := p.Run(baseSpec())
		require.Len(t, results, 3)
		assert.Empty(t, failed)
		assert.Equal(t, NameReachability, results[0].GateName)
		assert.Equal(t, NamePayload, results[1].GateName)
		assert.Equal(t, NameKeepout, results[2].GateName)
	})

	t.Run("reachability failure stops the run", func(t *testing.T) {
		spec := baseSpec()
		spec.Transformation.TargetPose = geom.Vec3{2, 0, 0}
		// Payload would fail too; reachability is reported first.
		spec.Substrate.MassKg = 12

		results, failed := p.Run(spec)
		require.Len(t, results, 1)
		assert.Equal(t, NameReachability, failed)
	})

	t.Run("payload failure reported after reachability passes", func(t *testing.T) {
		spec := baseSpec()
		spec.Substrate.MassKg = 12

		results, failed := p.Run(spec)
		require.Len(t, results, 2)
		assert.Equal(t, NamePayload, failed)
		assert.Equal(t, StatusPass, results[0].Status)
		assert.Equal(t, StatusFail, results[1].Status)
	})

	t.Run("keepout failure runs all gates", func(t *testing.T) {
		spec := baseSpec()
		spec.Environment.KeepoutZones = []taskspec.KeepoutZone{
			{ID: "guard", Min: geom.Vec3{0.7, -0.1, 0}, Max: geom.Vec3{1.1, 0.3, 0.4}},
		}

		results, failed := p.Run(spec)
		require.Len(t, results, 3)
		assert.Equal(t, NameKeepout, failed)
	})
}
