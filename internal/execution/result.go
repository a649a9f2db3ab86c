package execution

import (
	"time"

	"golang.org/x/exp/slices"

	"github.com/birdayz/kbuild/kitem"
)

// Status is the terminal state of a step in a build.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// StepOutcome describes what happened to one step.
type StepOutcome struct {
	Step     string
	Position int
	Status   Status
	// Err is a *StepExecutionError or *StepSkippedError, nil on success.
	Err      error
	Produced int
	Duration time.Duration
}

// BuildResult is the read-only outcome of a build: the aggregated items plus
// the status of every step. Items of failed or skipped steps are absent.
type BuildResult struct {
	items    map[kitem.ItemKind][]kitem.Item
	outcomes []StepOutcome
}

func newBuildResult(items map[kitem.ItemKind][]kitem.Item, outcomes []StepOutcome) *BuildResult {
	return &BuildResult{
		items:    items,
		outcomes: append([]StepOutcome(nil), outcomes...),
	}
}

// Items returns the aggregated items of kind, ordered by the producing step's
// execution order.
func (r *BuildResult) Items(kind kitem.ItemKind) []kitem.Item {
	return append([]kitem.Item(nil), r.items[kind]...)
}

// Kinds returns every kind with at least one item, sorted by name.
func (r *BuildResult) Kinds() []kitem.ItemKind {
	out := make([]kitem.ItemKind, 0, len(r.items))
	for k := range r.items {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Snapshot returns a copy of all aggregated items keyed by kind.
func (r *BuildResult) Snapshot() map[kitem.ItemKind][]kitem.Item {
	out := make(map[kitem.ItemKind][]kitem.Item, len(r.items))
	for k, v := range r.items {
		out[k] = append([]kitem.Item(nil), v...)
	}
	return out
}

// Features returns the names of all Feature items in execution order.
func (r *BuildResult) Features() []string {
	return kitem.Feature.Values(r.items[kitem.Feature.Name()])
}

// Outcomes returns one entry per step in execution order.
func (r *BuildResult) Outcomes() []StepOutcome {
	return append([]StepOutcome(nil), r.outcomes...)
}

// Outcome returns the outcome of the named step.
func (r *BuildResult) Outcome(step string) (StepOutcome, bool) {
	for _, o := range r.outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return StepOutcome{}, false
}

// Order returns the step names in execution order.
func (r *BuildResult) Order() []string {
	out := make([]string, len(r.outcomes))
	for i, o := range r.outcomes {
		out[i] = o.Step
	}
	return out
}

// Succeeded reports whether every step succeeded.
func (r *BuildResult) Succeeded() bool {
	for _, o := range r.outcomes {
		if o.Status != StatusSucceeded {
			return false
		}
	}
	return true
}
