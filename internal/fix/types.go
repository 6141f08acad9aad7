package fix

// Kind identifies a counterfactual remedy.
type Kind string

const (
	// KindMoveTarget proposes relocating the target pose.
	KindMoveTarget Kind = "MOVE_TARGET"
	// KindMoveBase proposes relocating the constructor base.
	KindMoveBase Kind = "MOVE_BASE"
	// KindSplitPayload proposes carrying the substrate in several trips.
	KindSplitPayload Kind = "SPLIT_PAYLOAD"
	// KindChangeConstructor proposes swapping in a more capable
	// constructor. It is the terminal fallback for every gate.
	KindChangeConstructor Kind = "CHANGE_CONSTRUCTOR"
)

// Fix is one proposed minimal change that would flip a HARD_CANT verdict.
// ProposedPatch carries concrete replacement values; it is a proposal, the
// original TaskSpec is never touched.
type Fix struct {
	Type          Kind           `json:"type"`
	Delta         float64        `json:"delta"`
	Instruction   string         `json:"instruction"`
	ProposedPatch map[string]any `json:"proposed_patch,omitempty"`
}
