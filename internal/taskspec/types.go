// Package taskspec defines the validated in-memory representation of a
// manipulation task and the parser that builds it from a YAML or JSON
// document. A TaskSpec that came out of Parse has passed both structural
// and semantic validation and is never mutated afterwards; everything
// downstream (gates, fixes, sweeps) treats it as read-only.
package taskspec

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/taskgate/internal/geom"
)

// DefaultSafetyBuffer is the keepout expansion applied when the document
// does not set environment.safety_buffer.
const DefaultSafetyBuffer = 0.02

// Substrate is the object being manipulated.
type Substrate struct {
	ID          string
	MassKg      float64
	InitialPose geom.Vec3
}

// Transformation describes where the substrate must end up.
type Transformation struct {
	TargetPose geom.Vec3
	ToleranceM float64
}

// Constructor is the acting robot: where it stands and what it can do.
type Constructor struct {
	ID           string
	BasePose     geom.Vec3
	MaxReachM    float64
	MaxPayloadKg float64
}

// KeepoutZone is a forbidden axis-aligned volume.
type KeepoutZone struct {
	ID  string
	Min geom.Vec3
	Max geom.Vec3
}

// Box returns the zone as a geometry AABB.
func (z KeepoutZone) Box() geom.AABB {
	return geom.AABB{Min: z.Min, Max: z.Max}
}

// Environment holds keepout zones and the safety buffer applied to them.
type Environment struct {
	SafetyBuffer float64
	KeepoutZones []KeepoutZone
}

// AllowedAdjustments declares which counterfactual remedies the caller
// permits. All default to false.
type AllowedAdjustments struct {
	CanMoveTarget        bool
	CanMoveBase          bool
	CanChangeConstructor bool
	CanSplitPayload      bool
}

// TaskSpec is the root of a validated task document.
type TaskSpec struct {
	TaskID             string
	Substrate          Substrate
	Transformation     Transformation
	Constructor        Constructor
	AllowedAdjustments AllowedAdjustments
	Environment        Environment
}

// Clone returns a deep copy. Sweep variant generation mutates copies of
// the base spec; the base itself stays untouched.
func (s *TaskSpec) Clone() *TaskSpec {
	out := *s
	if len(s.Environment.KeepoutZones) > 0 {
		out.Environment.KeepoutZones = make([]KeepoutZone, len(s.Environment.KeepoutZones))
		copy(out.Environment.KeepoutZones, s.Environment.KeepoutZones)
	}
	return &out
}

// NewTaskID generates a fresh 12-character task identifier.
func NewTaskID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
