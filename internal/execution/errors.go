package execution

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	ErrStepFailed     = errors.New("step failed")
	ErrStepSkipped    = errors.New("step skipped")
	ErrStepPanicked   = errors.New("step panicked")
	ErrUndeclaredKind = errors.New("step emitted an undeclared item kind")
	ErrNilItem        = errors.New("step emitted a nil item")
	ErrBuildFailed    = errors.New("build failed")
	ErrNotSealed      = errors.New("aggregator is not sealed")
)

// StepExecutionError is recorded when a step's logic returns an error, panics
// or emits items it did not declare.
type StepExecutionError struct {
	Step string
	Err  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() []error {
	return []error{ErrStepFailed, e.Err}
}

// StepSkippedError is recorded for a step that did not run because at least
// one of its producers failed or was skipped.
type StepSkippedError struct {
	Step     string
	Upstream []string
}

func (e *StepSkippedError) Error() string {
	return fmt.Sprintf("step %q skipped: upstream %s did not succeed", e.Step, strings.Join(e.Upstream, ", "))
}

func (e *StepSkippedError) Unwrap() error { return ErrStepSkipped }

// BuildFailedError lists every step that failed or was skipped, in execution
// order. It is returned together with the partial BuildResult.
type BuildFailedError struct {
	err error
}

func newBuildFailedError(errs ...error) *BuildFailedError {
	return &BuildFailedError{err: multierr.Combine(errs...)}
}

// Errors returns the per-step errors in execution order.
func (e *BuildFailedError) Errors() []error {
	return multierr.Errors(e.err)
}

// Failed returns the steps whose logic failed.
func (e *BuildFailedError) Failed() []*StepExecutionError {
	var out []*StepExecutionError
	for _, err := range e.Errors() {
		var se *StepExecutionError
		if errors.As(err, &se) {
			out = append(out, se)
		}
	}
	return out
}

// Skipped returns the steps that never ran.
func (e *BuildFailedError) Skipped() []*StepSkippedError {
	var out []*StepSkippedError
	for _, err := range e.Errors() {
		var se *StepSkippedError
		if errors.As(err, &se) {
			out = append(out, se)
		}
	}
	return out
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("%s: %d failed, %d skipped: %v",
		ErrBuildFailed, len(e.Failed()), len(e.Skipped()), e.err)
}

func (e *BuildFailedError) Unwrap() []error {
	return append([]error{ErrBuildFailed}, e.Errors()...)
}
