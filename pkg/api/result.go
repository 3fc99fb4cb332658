package api

import (
	"encoding/json"
	"errors"
)

// Stage names the pipeline state that produced a Result.
type Stage string

const (
	StageNotFound         Stage = "not_found"
	StageValidationFailed Stage = "validation_failed"
	StageExecutionFailed  Stage = "execution_failed"
	StageOutputMismatch   Stage = "output_mismatch"
	StageSucceeded        Stage = "succeeded"
)

// Result is the envelope returned by every node invocation.
//
// Exactly one of the following holds: Success is true and Outputs is
// non-nil, or Success is false and Error is non-empty. Stage is not part of
// the wire format; transports use it to pick a status code.
type Result struct {
	Success bool           `json:"success"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`

	Stage Stage `json:"-"`
	// Kind is set for execution failures raised by the node itself.
	Kind FailureKind `json:"-"`
}

// NewSuccessResult wraps validated outputs in a success envelope.
func NewSuccessResult(outputs map[string]any) Result {
	if outputs == nil {
		outputs = map[string]any{}
	}
	return Result{Success: true, Outputs: outputs, Stage: StageSucceeded}
}

// NewFailureResult builds a failure envelope for the given stage.
func NewFailureResult(stage Stage, message string) Result {
	if message == "" {
		message = string(stage)
	}
	return Result{Success: false, Error: message, Stage: stage}
}

// CallerError reports whether the failure is attributable to the caller
// (unknown node or invalid payload) rather than the node.
func (r Result) CallerError() bool {
	return r.Stage == StageNotFound || r.Stage == StageValidationFailed
}

// Err returns nil for successful results, otherwise an error wrapping the
// sentinel that matches the result's stage.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	var sentinels []error
	switch r.Stage {
	case StageNotFound:
		sentinels = []error{ErrNodeNotFound}
	case StageValidationFailed:
		sentinels = []error{ErrValidationFailed}
	case StageOutputMismatch:
		// Output mismatches surface as execution failures as well.
		sentinels = []error{ErrExecutionFailed, ErrOutputContract}
	default:
		sentinels = []error{ErrExecutionFailed}
	}
	return &resultError{msg: r.Error, sentinels: sentinels}
}

type resultError struct {
	msg       string
	sentinels []error
}

func (e *resultError) Error() string { return e.msg }

func (e *resultError) Unwrap() []error { return e.sentinels }

// IsStage is a helper for errors returned from Result.Err.
func IsStage(err error, stage Stage) bool {
	switch stage {
	case StageNotFound:
		return errors.Is(err, ErrNodeNotFound)
	case StageValidationFailed:
		return errors.Is(err, ErrValidationFailed)
	case StageOutputMismatch:
		return errors.Is(err, ErrOutputContract)
	case StageExecutionFailed:
		return errors.Is(err, ErrExecutionFailed)
	case StageSucceeded:
		return err == nil
	}
	return false
}

// MarshalJSON writes the envelope as {"success": true, "outputs": {...}} or
// {"success": false, "error": "..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		outputs := r.Outputs
		if outputs == nil {
			outputs = map[string]any{}
		}
		return json.Marshal(struct {
			Success bool           `json:"success"`
			Outputs map[string]any `json:"outputs"`
		}{true, outputs})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.Error})
}
