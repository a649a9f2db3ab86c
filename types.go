package kbuild

import (
	"github.com/birdayz/kbuild/internal/execution"
	"github.com/birdayz/kbuild/kdag"
	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

type (
	Item          = kitem.Item
	ItemKind      = kitem.ItemKind
	Step          = kstep.Step
	StepFunc      = kstep.StepFunc
	Inputs        = kstep.Inputs
	DAG           = kdag.DAG
	BuildResult   = execution.BuildResult
	StepOutcome   = execution.StepOutcome
	Status        = execution.Status
	Observer      = execution.Observer
	BuildObserver = execution.BuildObserver
	NopObserver   = execution.NopObserver
	MultiObserver = execution.MultiObserver
)

const (
	StatusSucceeded = execution.StatusSucceeded
	StatusFailed    = execution.StatusFailed
	StatusSkipped   = execution.StatusSkipped
)

// Errors
type (
	DuplicateStepError    = kdag.DuplicateStepError
	SelfLoopError         = kdag.SelfLoopError
	CyclicDependencyError = kdag.CyclicDependencyError
	StepExecutionError    = execution.StepExecutionError
	StepSkippedError      = execution.StepSkippedError
	BuildFailedError      = execution.BuildFailedError
)

var (
	ErrDuplicateStep   = kdag.ErrDuplicateStep
	ErrSelfLoop        = kdag.ErrSelfLoop
	ErrCycleDetected   = kdag.ErrCycleDetected
	ErrInvalidStepName = kdag.ErrInvalidStepName
	ErrNilStepFunc     = kdag.ErrNilStepFunc
	ErrTooManySteps    = kdag.ErrTooManySteps
	ErrInvalidKind     = kitem.ErrInvalidKind
	ErrStepFailed      = execution.ErrStepFailed
	ErrStepSkipped     = execution.ErrStepSkipped
	ErrStepPanicked    = execution.ErrStepPanicked
	ErrUndeclaredKind  = execution.ErrUndeclaredKind
	ErrNilItem         = execution.ErrNilItem
	ErrBuildFailed     = execution.ErrBuildFailed
)
