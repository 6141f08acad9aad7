// Package geom provides the closed-form geometry used by the feasibility
// gates and the counterfactual fix engine. Everything here is pure
// arithmetic over 3-D points and axis-aligned boxes; there is no tolerance
// handling beyond IEEE 754 semantics.
package geom

import "math"

// Vec3 is a 3-D coordinate in metres.
type Vec3 [3]float64

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ProjectOntoSphere returns the point on the sphere of the given radius
// around center that lies on the ray from center through target. When
// center and target coincide the projection is undefined and target is
// returned unchanged.
func ProjectOntoSphere(center, target Vec3, radius float64) Vec3 {
	dist := Distance(center, target)
	if dist == 0 {
		return target
	}
	scale := radius / dist
	var out Vec3
	for i := range out {
		out[i] = center[i] + (target[i]-center[i])*scale
	}
	return out
}

// PointToward moves source toward destination by step metres. A zero
// source-to-destination distance returns source unchanged.
func PointToward(source, destination Vec3, step float64) Vec3 {
	dist := Distance(source, destination)
	if dist == 0 {
		return source
	}
	scale := step / dist
	var out Vec3
	for i := range out {
		out[i] = source[i] + (destination[i]-source[i])*scale
	}
	return out
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Expand returns the box grown outward by buffer on every axis.
func (b AABB) Expand(buffer float64) AABB {
	var out AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = b.Min[i] - buffer
		out.Max[i] = b.Max[i] + buffer
	}
	return out
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Escape computes the smallest axis-aligned translation that moves p onto
// a face of the box. Candidates are the six face projections; the winner
// is the one with the smallest displacement. Exact ties resolve to the
// lowest axis index, and on the same axis to the lower-coordinate face.
// The caller is expected to pass a point inside the box; for an outside
// point the result is still the nearest face along a single axis.
func (b AABB) Escape(p Vec3) (Vec3, float64) {
	bestDist := math.Inf(1)
	best := p

	for i := 0; i < 3; i++ {
		if d := p[i] - b.Min[i]; d >= 0 && d < bestDist {
			candidate := p
			candidate[i] = b.Min[i]
			bestDist = d
			best = candidate
		}
		if d := b.Max[i] - p[i]; d >= 0 && d < bestDist {
			candidate := p
			candidate[i] = b.Max[i]
			bestDist = d
			best = candidate
		}
	}
	return best, bestDist
}

// Round6 rounds v to six decimal places, the precision used for every
// reported measurement and proposed coordinate.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
