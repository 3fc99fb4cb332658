package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/petrijr/nodeflux/pkg/api"
)

// errPanic marks a recovered panic from node code.
var errPanic = errors.New("node panicked")

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func (p *panicError) Unwrap() error { return errPanic }

// runPipeline drives one node through validation, execution and the output
// check. It never panics.
func runPipeline(ctx context.Context, node api.Node, payload map[string]any) (res api.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			// Schema accessors and descriptors are node code too.
			res = executionFailure(&panicError{value: rec, stack: debug.Stack()})
		}
	}()

	in, err := node.InputSchema().Validate(payload)
	if err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			return api.NewFailureResult(api.StageValidationFailed, "Input validation failed: "+verr.Error())
		}
		// A malformed input schema is a node defect, not a caller error.
		return executionFailure(err)
	}

	out, err := execute(ctx, node, in)
	if err != nil {
		return executionFailure(err)
	}

	outputs, err := node.OutputSchema().CheckOutput(out)
	if err != nil {
		res := api.NewFailureResult(api.StageOutputMismatch, "Execution error: output contract violation: "+err.Error())
		res.Kind = api.FailureInternal
		return res
	}

	return api.NewSuccessResult(outputs)
}

// execute calls node.Execute, converting a panic into an error.
func execute(ctx context.Context, node api.Node, in api.Input) (out api.Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return node.Execute(ctx, in)
}

func executionFailure(err error) api.Result {
	res := api.NewFailureResult(api.StageExecutionFailed, "Execution error: "+err.Error())
	res.Kind = api.KindOf(err)
	return res
}
