package gate

// Status is the outcome of a single gate evaluation.
type Status string

const (
	// StatusPass means the measured quantity is within its limit.
	StatusPass Status = "PASS"
	// StatusFail means the limit is exceeded; ReasonCode says how.
	StatusFail Status = "FAIL"
)

// Gate names. The pipeline order is fixed; new gates are appended, never
// reordered, so historical evidence stays reproducible.
const (
	NameReachability = "reachability"
	NamePayload      = "payload"
	NameKeepout      = "keepout"
)

// Reason codes attached to failing gate results.
const (
	ReasonOutOfReach    = "OUT_OF_REACH"
	ReasonOverPayload   = "OVER_PAYLOAD"
	ReasonInKeepoutZone = "IN_KEEP_OUT_ZONE"
)

// Result is the structured outcome of one gate. ReasonCode is non-empty
// exactly when Status is FAIL.
type Result struct {
	GateName       string         `json:"gate_name"`
	Status         Status         `json:"status"`
	MeasuredValues map[string]any `json:"measured_values"`
	ReasonCode     string         `json:"reason_code,omitempty"`
}

// Failed reports whether this gate rejected the task.
func (r Result) Failed() bool {
	return r.Status == StatusFail
}
