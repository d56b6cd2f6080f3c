// Package core provides shared domain types for the computation graph
// engine: the evaluation error taxonomy and the result payload shapes
// returned for materialized outputs.
package core

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation or construction failure.
type Kind string

// Failure kinds. Every failure raised while building or evaluating a
// graph carries exactly one of these.
const (
	KindUnknownColumn    Kind = "unknown_column"
	KindArityMismatch    Kind = "arity_mismatch"
	KindRowCountMismatch Kind = "row_count_mismatch"
	KindNonNumericColumn Kind = "non_numeric_column"
	KindTypeMismatch     Kind = "type_mismatch"
	KindInvalidMode      Kind = "invalid_mode"
	KindSingularDesign   Kind = "singular_design"
	KindNonConvergence   Kind = "non_convergence"
	KindInsufficientRows Kind = "insufficient_rows"
	KindCycleDetected    Kind = "cycle_detected"
	// KindProviderFailure marks an infrastructure failure in the tabular
	// provider, as opposed to a column that does not exist.
	KindProviderFailure Kind = "provider_failure"
)

// Error is a structured failure tied to a specific graph node.
// Node is the arena index of the offending node, or -1 when the failure
// precedes node assignment (e.g. a malformed serialized graph).
type Error struct {
	Node int
	Op   string
	Kind Kind
	Err  error
}

// NewError creates an Error for the given node and kind. The message is
// formatted with fmt.Sprintf.
func NewError(node int, op string, kind Kind, format string, args ...any) *Error {
	return &Error{Node: node, Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("node %d (%s): %s: %v", e.Node, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a graph Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// graph Error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
