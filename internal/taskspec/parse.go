package taskspec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/taskgate/internal/geom"
)

// Wire-level document types. Required fields are pointers so that absence
// is distinguishable from a zero value; Parse converts them into the value
// types in types.go only after every presence check has passed.

type poseDoc struct {
	XYZ []float64 `yaml:"xyz" json:"xyz"`
}

type substrateDoc struct {
	ID          *string  `yaml:"id" json:"id"`
	MassKg      *float64 `yaml:"mass_kg" json:"mass_kg"`
	InitialPose *poseDoc `yaml:"initial_pose" json:"initial_pose"`
}

type transformationDoc struct {
	TargetPose *poseDoc `yaml:"target_pose" json:"target_pose"`
	ToleranceM *float64 `yaml:"tolerance_m" json:"tolerance_m"`
}

type constructorDoc struct {
	ID           *string  `yaml:"id" json:"id"`
	BasePose     *poseDoc `yaml:"base_pose" json:"base_pose"`
	MaxReachM    *float64 `yaml:"max_reach_m" json:"max_reach_m"`
	MaxPayloadKg *float64 `yaml:"max_payload_kg" json:"max_payload_kg"`
}

type keepoutZoneDoc struct {
	ID     string    `yaml:"id" json:"id"`
	MinXYZ []float64 `yaml:"min_xyz" json:"min_xyz"`
	MaxXYZ []float64 `yaml:"max_xyz" json:"max_xyz"`
}

type environmentDoc struct {
	SafetyBuffer *float64         `yaml:"safety_buffer" json:"safety_buffer"`
	KeepoutZones []keepoutZoneDoc `yaml:"keepout_zones" json:"keepout_zones"`
}

type adjustmentsDoc struct {
	CanMoveTarget        bool `yaml:"can_move_target" json:"can_move_target"`
	CanMoveBase          bool `yaml:"can_move_base" json:"can_move_base"`
	CanChangeConstructor bool `yaml:"can_change_constructor" json:"can_change_constructor"`
	CanSplitPayload      bool `yaml:"can_split_payload" json:"can_split_payload"`
}

type specDoc struct {
	TaskID             string             `yaml:"task_id" json:"task_id"`
	Substrate          *substrateDoc      `yaml:"substrate" json:"substrate"`
	Transformation     *transformationDoc `yaml:"transformation" json:"transformation"`
	Constructor        *constructorDoc    `yaml:"constructor" json:"constructor"`
	Environment        *environmentDoc    `yaml:"environment" json:"environment"`
	AllowedAdjustments *adjustmentsDoc    `yaml:"allowed_adjustments" json:"allowed_adjustments"`
}

// Parse decodes a YAML (or JSON, YAML being a superset) TaskSpec document,
// checks structure and numeric invariants, applies the documented defaults
// (task_id, safety_buffer) and returns the validated spec.
//
// Parse is pure: it touches no global state and the returned spec shares
// no memory with the input.
func Parse(data []byte) (*TaskSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SchemaError{Field: "document", Reason: err.Error()}
	}

	var doc specDoc
	if root.Kind != 0 {
		if err := root.Decode(&doc); err != nil {
			return nil, decodeError(&root, err)
		}
	}
	return build(&doc)
}

// decodeError turns a node-decode failure into a SchemaError. Type
// mismatches carry source line numbers, which resolve back through the
// node tree to the dotted path of the offending field; anything else is
// reported against the document as a whole.
func decodeError(root *yaml.Node, err error) error {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		if line, reason, ok := splitLineError(typeErr.Errors[0]); ok {
			if path := pathForLine(root, line); path != "" {
				return &SchemaError{Field: path, Reason: reason}
			}
		}
	}
	return &SchemaError{Field: "document", Reason: err.Error()}
}

// splitLineError parses a "line N: reason" entry from a yaml.TypeError.
func splitLineError(msg string) (int, string, bool) {
	rest, ok := strings.CutPrefix(msg, "line ")
	if !ok {
		return 0, "", false
	}
	num, reason, ok := strings.Cut(rest, ": ")
	if !ok {
		return 0, "", false
	}
	line, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", false
	}
	return line, reason, true
}

// pathForLine returns the dotted path of the value node found at the
// given source line, or "" when no node claims it. Depth-first so the
// most specific field wins.
func pathForLine(n *yaml.Node, line int) string {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return pathForLine(n.Content[0], line)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if sub := pathForLine(val, line); sub != "" {
				return joinPath(key.Value, sub)
			}
			if val.Line == line {
				return key.Value
			}
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			idx := fmt.Sprintf("[%d]", i)
			if sub := pathForLine(item, line); sub != "" {
				return joinPath(idx, sub)
			}
			if item.Line == line {
				return idx
			}
		}
	}
	return ""
}

func joinPath(head, tail string) string {
	if strings.HasPrefix(tail, "[") {
		return head + tail
	}
	return head + "." + tail
}

func build(doc *specDoc) (*TaskSpec, error) {
	spec := &TaskSpec{TaskID: doc.TaskID}
	if spec.TaskID == "" {
		spec.TaskID = NewTaskID()
	}

	// substrate
	if doc.Substrate == nil {
		return nil, &SchemaError{Field: "substrate", Reason: "required section missing"}
	}
	if doc.Substrate.ID == nil {
		return nil, &SchemaError{Field: "substrate.id", Reason: "required field missing"}
	}
	if doc.Substrate.MassKg == nil {
		return nil, &SchemaError{Field: "substrate.mass_kg", Reason: "required field missing"}
	}
	initial, err := parsePose(doc.Substrate.InitialPose, "substrate.initial_pose")
	if err != nil {
		return nil, err
	}
	spec.Substrate = Substrate{
		ID:          *doc.Substrate.ID,
		MassKg:      *doc.Substrate.MassKg,
		InitialPose: initial,
	}

	// transformation
	if doc.Transformation == nil {
		return nil, &SchemaError{Field: "transformation", Reason: "required section missing"}
	}
	target, err := parsePose(doc.Transformation.TargetPose, "transformation.target_pose")
	if err != nil {
		return nil, err
	}
	if doc.Transformation.ToleranceM == nil {
		return nil, &SchemaError{Field: "transformation.tolerance_m", Reason: "required field missing"}
	}
	spec.Transformation = Transformation{
		TargetPose: target,
		ToleranceM: *doc.Transformation.ToleranceM,
	}

	// constructor
	if doc.Constructor == nil {
		return nil, &SchemaError{Field: "constructor", Reason: "required section missing"}
	}
	if doc.Constructor.ID == nil {
		return nil, &SchemaError{Field: "constructor.id", Reason: "required field missing"}
	}
	base, err := parsePose(doc.Constructor.BasePose, "constructor.base_pose")
	if err != nil {
		return nil, err
	}
	if doc.Constructor.MaxReachM == nil {
		return nil, &SchemaError{Field: "constructor.max_reach_m", Reason: "required field missing"}
	}
	if doc.Constructor.MaxPayloadKg == nil {
		return nil, &SchemaError{Field: "constructor.max_payload_kg", Reason: "required field missing"}
	}
	spec.Constructor = Constructor{
		ID:           *doc.Constructor.ID,
		BasePose:     base,
		MaxReachM:    *doc.Constructor.MaxReachM,
		MaxPayloadKg: *doc.Constructor.MaxPayloadKg,
	}

	// environment: absent means no zones and the default buffer.
	spec.Environment = Environment{SafetyBuffer: DefaultSafetyBuffer}
	if doc.Environment != nil {
		if doc.Environment.SafetyBuffer != nil {
			spec.Environment.SafetyBuffer = *doc.Environment.SafetyBuffer
		}
		for i, z := range doc.Environment.KeepoutZones {
			field := fmt.Sprintf("environment.keepout_zones[%d]", i)
			mn, err := parseTriple(z.MinXYZ, field+".min_xyz")
			if err != nil {
				return nil, err
			}
			mx, err := parseTriple(z.MaxXYZ, field+".max_xyz")
			if err != nil {
				return nil, err
			}
			spec.Environment.KeepoutZones = append(spec.Environment.KeepoutZones, KeepoutZone{
				ID:  z.ID,
				Min: mn,
				Max: mx,
			})
		}
	}

	if doc.AllowedAdjustments != nil {
		spec.AllowedAdjustments = AllowedAdjustments(*doc.AllowedAdjustments)
	}

	if err := Validate(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func parsePose(p *poseDoc, field string) (geom.Vec3, error) {
	if p == nil {
		return geom.Vec3{}, &SchemaError{Field: field, Reason: "required field missing"}
	}
	return parseTriple(p.XYZ, field+".xyz")
}

func parseTriple(vals []float64, field string) (geom.Vec3, error) {
	if len(vals) != 3 {
		return geom.Vec3{}, &SchemaError{
			Field:  field,
			Reason: fmt.Sprintf("expected 3 components, got %d", len(vals)),
		}
	}
	var v geom.Vec3
	copy(v[:], vals)
	return v, nil
}

// Validate checks the numeric invariants of an already-structured spec.
// Sweep variant generation calls this directly after mutating a clone of
// the base spec.
func Validate(s *TaskSpec) error {
	if err := checkFinite(s.Substrate.InitialPose, "substrate.initial_pose"); err != nil {
		return err
	}
	if err := checkFinite(s.Transformation.TargetPose, "transformation.target_pose"); err != nil {
		return err
	}
	if err := checkFinite(s.Constructor.BasePose, "constructor.base_pose"); err != nil {
		return err
	}

	if math.IsNaN(s.Substrate.MassKg) || math.IsInf(s.Substrate.MassKg, 0) || s.Substrate.MassKg < 0 {
		return &SemanticError{Field: "substrate.mass_kg", Reason: "must be finite and non-negative"}
	}
	if math.IsNaN(s.Transformation.ToleranceM) || math.IsInf(s.Transformation.ToleranceM, 0) || s.Transformation.ToleranceM < 0 {
		return &SemanticError{Field: "transformation.tolerance_m", Reason: "must be finite and non-negative"}
	}
	if !(s.Constructor.MaxReachM > 0) || math.IsInf(s.Constructor.MaxReachM, 0) {
		return &SemanticError{Field: "constructor.max_reach_m", Reason: "must be finite and strictly positive"}
	}
	if !(s.Constructor.MaxPayloadKg > 0) || math.IsInf(s.Constructor.MaxPayloadKg, 0) {
		return &SemanticError{Field: "constructor.max_payload_kg", Reason: "must be finite and strictly positive"}
	}
	if math.IsNaN(s.Environment.SafetyBuffer) || math.IsInf(s.Environment.SafetyBuffer, 0) || s.Environment.SafetyBuffer < 0 {
		return &SemanticError{Field: "environment.safety_buffer", Reason: "must be finite and non-negative"}
	}

	for i, z := range s.Environment.KeepoutZones {
		field := fmt.Sprintf("environment.keepout_zones[%d]", i)
		if err := checkFinite(z.Min, field+".min_xyz"); err != nil {
			return err
		}
		if err := checkFinite(z.Max, field+".max_xyz"); err != nil {
			return err
		}
		for axis := 0; axis < 3; axis++ {
			if z.Min[axis] > z.Max[axis] {
				return &SemanticError{
					Field:  field,
					Reason: fmt.Sprintf("min_xyz[%d] > max_xyz[%d]", axis, axis),
				}
			}
		}
	}
	return nil
}

func checkFinite(v geom.Vec3, field string) error {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &SemanticError{Field: field, Reason: "components must be finite"}
		}
	}
	return nil
}
