package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when no registered node has the requested id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when a catalogue lists the same id twice.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrValidationFailed marks payloads that do not satisfy an input schema.
	ErrValidationFailed = errors.New("input validation failed")

	// ErrExecutionFailed marks failures raised by a node's domain logic.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrOutputContract marks nodes that returned a value not matching
	// their declared output schema.
	ErrOutputContract = errors.New("output contract violation")

	// ErrInvalidSchema is returned when a schema definition is malformed.
	ErrInvalidSchema = errors.New("invalid schema")
)

// FailureKind classifies a domain failure signalled by a node. The engine
// treats every kind the same way; kinds exist for logs and metrics.
type FailureKind string

const (
	FailureInvalidArgument FailureKind = "invalid_argument"
	FailureNotFound        FailureKind = "not_found"
	FailureUnavailable     FailureKind = "unavailable"
	FailureInternal        FailureKind = "internal"
)

// NodeError is the error nodes return to signal a domain failure.
type NodeError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *NodeError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *NodeError) Unwrap() error { return e.Err }

// Fail builds a NodeError with a formatted message.
func Fail(kind FailureKind, format string, args ...any) error {
	return &NodeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a NodeError around an underlying cause.
func Wrap(kind FailureKind, err error, format string, args ...any) error {
	return &NodeError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the FailureKind carried by err, or FailureInternal when
// err is not a NodeError.
func KindOf(err error) FailureKind {
	var ne *NodeError
	if errors.As(err, &ne) && ne.Kind != "" {
		return ne.Kind
	}
	return FailureInternal
}
