package kdag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/birdayz/kbuild/kitem"
)

// Sentinel errors for common failure cases.
var (
	ErrDuplicateStep   = errors.New("step already registered")
	ErrInvalidStepName = errors.New("invalid step name")
	ErrNilStepFunc     = errors.New("step has no invocation logic")
	ErrSelfLoop        = errors.New("step consumes a kind it produces")
	ErrCycleDetected   = errors.New("cycle detected in build graph")
	ErrStepNotFound    = errors.New("step not found")
	ErrTooManySteps    = errors.New("too many steps")
)

// DuplicateStepError is returned when a step name is registered twice.
type DuplicateStepError struct {
	Name string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateStep, e.Name)
}

func (e *DuplicateStepError) Unwrap() error { return ErrDuplicateStep }

// SelfLoopError is returned at registration when a step consumes one of the
// kinds it produces.
type SelfLoopError struct {
	Step  string
	Kinds []kitem.ItemKind
}

func (e *SelfLoopError) Error() string {
	kinds := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		kinds[i] = string(k)
	}
	return fmt.Sprintf("%s: step %q on %s", ErrSelfLoop, e.Step, strings.Join(kinds, ", "))
}

func (e *SelfLoopError) Unwrap() error { return ErrSelfLoop }

// CyclicDependencyError names the steps on a dependency cycle. The cycle
// starts and ends with the same step, e.g. [a b a].
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCycleDetected }
