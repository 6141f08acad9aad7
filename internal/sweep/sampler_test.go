package sweep

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskgate/internal/evidence"
	"github.com/fyrsmithlabs/taskgate/internal/gate"
	"github.com/fyrsmithlabs/taskgate/internal/geom"
	"github.com/fyrsmithlabs/taskgate/internal/taskspec"
)

func sweepBase() *taskspec.TaskSpec {
	return &taskspec.TaskSpec{
		TaskID: "sweep-test",
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
		Environment: taskspec.Environment{SafetyBuffer: 0.02},
	}
}

func sweepRequest(n int, seed int64) *Request {
	return &Request{
		Base: sweepBase(),
		Variations: Variations{
			MassKg: &Range{Min: 0.1, Max: 8.0},
			TargetXYZ: &AxisRanges{
				X: &Range{Min: 0.2, Max: 2.0},
			},
		},
		N:    n,
		Seed: seed,
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"nil base", func(r *Request) { r.Base = nil }},
		{"zero n", func(r *Request) { r.N = 0 }},
		{"negative n", func(r *Request) { r.N = -3 }},
		{"mass min over max", func(r *Request) { r.Variations.MassKg = &Range{Min: 2, Max: 1} }},
		{"negative mass min", func(r *Request) { r.Variations.MassKg = &Range{Min: -1, Max: 1} }},
		{"axis min over max", func(r *Request) { r.Variations.TargetXYZ.X = &Range{Min: 1, Max: 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sweepRequest(10, 42)
			tt.mutate(req)
			err := ValidateRequest(req)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}

	assert.NoError(t, ValidateRequest(sweepRequest(10, 42)))
}

func TestGenerateVariantsDeterministic(t *testing.T) {
	first, err := GenerateVariants(sweepRequest(20, 42))
	require.NoError(t, err)
	second, err := GenerateVariants(sweepRequest(20, 42))
	require.NoError(t, err)

	require.Len(t, first, 20)
	for i := range first {
		assert.Equal(t, first[i], second[i], "variant %d", i)
	}

	// A different seed draws a different sequence.
	other, err := GenerateVariants(sweepRequest(20, 43))
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Substrate.MassKg, other[0].Substrate.MassKg)
}

func TestGenerateVariantsBoundsAndIDs(t *testing.T) {
	variants, err := GenerateVariants(sweepRequest(50, 7))
	require.NoError(t, err)

	for i, v := range variants {
		assert.Equal(t, fmt.Sprintf("sweep-test-sweep-%04d", i), v.TaskID)
		assert.GreaterOrEqual(t, v.Substrate.MassKg, 0.1)
		assert.Less(t, v.Substrate.MassKg, 8.0)
		assert.GreaterOrEqual(t, v.Transformation.TargetPose[0], 0.2)
		assert.Less(t, v.Transformation.TargetPose[0], 2.0)

		// Unvaried coordinates keep the base values.
		assert.Equal(t, 0.2, v.Transformation.TargetPose[1])
		assert.Equal(t, 0.1, v.Transformation.TargetPose[2])
	}
}

func TestGenerateVariantsLeavesBaseUntouched(t *testing.T) {
	req := sweepRequest(5, 1)
	_, err := GenerateVariants(req)
	require.NoError(t, err)
	assert.Equal(t, sweepBase(), req.Base)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	eval := evidence.NewEvaluator()
	ctx := context.Background()

	serial, err := NewSampler(eval, 1).Run(ctx, sweepRequest(40, 42))
	require.NoError(t, err)
	parallel, err := NewSampler(eval, 8).Run(ctx, sweepRequest(40, 42))
	require.NoError(t, err)

	require.Len(t, parallel.Packets, 40)
	for i := range serial.Packets {
		assert.Equal(t, serial.Packets[i].TaskID, parallel.Packets[i].TaskID)
		assert.Equal(t, serial.Packets[i].Verdict, parallel.Packets[i].Verdict)
		assert.Equal(t, serial.Packets[i].FailedGate, parallel.Packets[i].FailedGate)
	}
	assert.Equal(t, serial.Summary, parallel.Summary)
}

func TestRunSummary(t *testing.T) {
	// Mass 0.1..8 against a 5 kg limit and x 0.2..2 against 1.3 m reach:
	// both verdicts occur over 60 variants with overwhelming probability.
	res, err := NewSampler(evidence.NewEvaluator(), 4).Run(context.Background(), sweepRequest(60, 42))
	require.NoError(t, err)

	sum := res.Summary
	assert.Equal(t, 60, sum.CanCount+sum.HardCantCount)
	assert.Positive(t, sum.CanCount)
	assert.Positive(t, sum.HardCantCount)

	total := 0
	for gateName, n := range sum.ByFailedGate {
		assert.Contains(t, FailedGateNames(), gateName)
		total += n
	}
	assert.Equal(t, sum.HardCantCount, total)

	require.NotEmpty(t, sum.TopReasonCodes)
	for i := 1; i < len(sum.TopReasonCodes); i++ {
		assert.GreaterOrEqual(t, sum.TopReasonCodes[i-1].Count, sum.TopReasonCodes[i].Count)
	}
}

func TestRunSetupErrorAbortsWholeSweep(t *testing.T) {
	req := sweepRequest(10, 42)
	req.Variations.MassKg = &Range{Min: 5, Max: 1}

	res, err := NewSampler(evidence.NewEvaluator(), 4).Run(context.Background(), req)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSummarizeAllCan(t *testing.T) {
	res, err := NewSampler(evidence.NewEvaluator(), 2).Run(context.Background(), &Request{
		Base: sweepBase(),
		Variations: Variations{
			MassKg: &Range{Min: 0.1, Max: 0.5},
		},
		N:    10,
		Seed: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.Summary.CanCount)
	assert.Zero(t, res.Summary.HardCantCount)
	assert.Empty(t, res.Summary.ByFailedGate)
	assert.Empty(t, res.Summary.TopReasonCodes)
}

func TestShortCircuitKeepsOneFailurePerVariant(t *testing.T) {
	// Every variant is both too heavy and out of reach; only the first
	// gate's failure is recorded.
	req := &Request{
		Base: sweepBase(),
		Variations: Variations{
			MassKg:    &Range{Min: 10, Max: 12},
			TargetXYZ: &AxisRanges{X: &Range{Min: 3, Max: 4}},
		},
		N:    10,
		Seed: 5,
	}
	res, err := NewSampler(evidence.NewEvaluator(), 4).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Summary.HardCantCount)
	assert.Equal(t, 10, res.Summary.ByFailedGate[gate.NameReachability])
	require.Len(t, res.Summary.TopReasonCodes, 1)
	assert.Equal(t, gate.ReasonOutOfReach, res.Summary.TopReasonCodes[0].ReasonCode)
	assert.Equal(t, 10, res.Summary.TopReasonCodes[0].Count)
}
