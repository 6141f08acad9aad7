package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{0, 0, 0}, Vec3{1, 0, 0}, 1},
		{"pythagorean", Vec3{0, 0, 0}, Vec3{3, 4, 0}, 5},
		{"negative coords", Vec3{-1, -1, -1}, Vec3{1, 1, 1}, 3.4641016151377544},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 1e-12)
		})
	}
}

func TestProjectOntoSphere(t *testing.T) {
	center := Vec3{0, 0, 0}
	target := Vec3{2, 0, 0}

	projected := ProjectOntoSphere(center, target, 1.85)
	assert.InDelta(t, 1.85, projected[0], 1e-9)
	assert.Zero(t, projected[1])
	assert.Zero(t, projected[2])

	// Resulting distance is exactly the radius, within float tolerance.
	assert.InDelta(t, 1.85, Distance(center, projected), 1e-6)
}

func TestProjectOntoSphereOffAxis(t *testing.T) {
	center := Vec3{1, 1, 0}
	target := Vec3{4, 5, 0}

	projected := ProjectOntoSphere(center, target, 2.5)
	require.InDelta(t, 2.5, Distance(center, projected), 1e-9)

	// Projection stays on the center-target ray.
	assert.InDelta(t, (projected[0]-1)/3, (projected[1]-1)/4, 1e-9)
}

func TestProjectOntoSphereDegenerate(t *testing.T) {
	p := Vec3{1, 2, 3}
	assert.Equal(t, p, ProjectOntoSphere(p, p, 5))
}

func TestPointToward(t *testing.T) {
	moved := PointToward(Vec3{0, 0, 0}, Vec3{2, 0, 0}, 0.15)
	assert.InDelta(t, 0.15, moved[0], 1e-9)

	// Degenerate: zero distance leaves the point in place.
	p := Vec3{1, 1, 1}
	assert.Equal(t, p, PointToward(p, p, 0.5))
}

func TestAABBExpandContains(t *testing.T) {
	box := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}

	assert.True(t, box.Contains(Vec3{0.5, 0.5, 0.5}))
	assert.True(t, box.Contains(Vec3{0, 0, 0}), "boundary is inside")
	assert.False(t, box.Contains(Vec3{1.01, 0.5, 0.5}))

	expanded := box.Expand(0.02)
	assert.True(t, expanded.Contains(Vec3{1.01, 0.5, 0.5}))
	assert.False(t, expanded.Contains(Vec3{1.03, 0.5, 0.5}))
}

func TestAABBEscape(t *testing.T) {
	box := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}

	tests := []struct {
		name      string
		point     Vec3
		wantPoint Vec3
		wantDist  float64
	}{
		{"near low x face", Vec3{0.2, 0.5, 0.5}, Vec3{0, 0.5, 0.5}, 0.2},
		{"near high y face", Vec3{0.5, 0.9, 0.5}, Vec3{0.5, 1, 0.5}, 0.1},
		{"center ties to low x", Vec3{0.5, 0.5, 0.5}, Vec3{0, 0.5, 0.5}, 0.5},
		{"cross-axis tie prefers lower axis", Vec3{0.5, 0.2, 0.8}, Vec3{0.5, 0, 0.8}, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dist := box.Escape(tt.point)
			assert.Equal(t, tt.wantPoint, got)
			assert.InDelta(t, tt.wantDist, dist, 1e-12)
		})
	}
}

func TestRound6(t *testing.T) {
	assert.Equal(t, 0.123457, Round6(0.1234567))
	assert.Equal(t, 2.0, Round6(2.0000000001))
	assert.Equal(t, -0.15, Round6(-0.15000000004))
}
