package taskspec

import "fmt"

// SchemaError reports a structurally malformed document: a required field
// is missing or has the wrong type. Field is the dotted path of the
// offending field.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %q: %s", e.Field, e.Reason)
}

// SemanticError reports a well-formed document that violates a numeric
// invariant, such as a negative mass or a keepout box with min > max.
type SemanticError struct {
	Field  string
	Reason string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic error at %q: %s", e.Field, e.Reason)
}
