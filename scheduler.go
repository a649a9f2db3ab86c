package kbuild

import (
	"context"

	"github.com/birdayz/kbuild/internal/execution"
)

// Scheduler executes build steps exactly once each, producers before
// consumers, isolating failures to the steps that depend on them.
type Scheduler struct {
	s *execution.Scheduler
}

// NewScheduler creates a scheduler. By default it runs serially and logs
// nothing.
func NewScheduler(opts ...Option) *Scheduler {
	cfg := newConfig(opts...)
	return &Scheduler{s: execution.NewScheduler(cfg.executionConfig())}
}

// Run derives the dependency graph of steps and executes it.
//
// Registration errors and dependency cycles are returned before any step
// runs. If a step fails, the partial result is returned together with a
// *BuildFailedError naming every failed and skipped step.
func (s *Scheduler) Run(ctx context.Context, steps []Step) (*BuildResult, error) {
	return s.s.Run(ctx, steps)
}

// RunDAG executes an already built DAG.
func (s *Scheduler) RunDAG(ctx context.Context, dag *DAG) (*BuildResult, error) {
	return s.s.RunDAG(ctx, dag)
}

// NewLogObserver returns an observer that logs step events to the logger.
var NewLogObserver = execution.NewLogObserver
