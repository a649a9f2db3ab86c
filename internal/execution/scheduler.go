package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/kbuild/kdag"
	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

// Config configures a Scheduler.
type Config struct {
	// Parallelism is the maximum number of steps running at once. Values
	// below 2 run the build serially.
	Parallelism int
	Log         logr.Logger
	Observer    Observer
}

// Scheduler executes the steps of a DAG exactly once each, producers before
// consumers, and aggregates their output. A Scheduler holds no per-build state
// and can run any number of builds concurrently.
type Scheduler struct {
	parallelism int
	log         logr.Logger
	observer    Observer
}

func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		parallelism: cfg.Parallelism,
		log:         cfg.Log,
		observer:    cfg.Observer,
	}
	if s.log.GetSink() == nil {
		s.log = logr.Discard()
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	return s
}

// Run builds the dependency graph of steps and executes it. Graph errors
// (duplicates, self loops, cycles) are returned before any step runs.
func (s *Scheduler) Run(ctx context.Context, steps []kstep.Step) (*BuildResult, error) {
	dag, err := kdag.FromSteps(steps)
	if err != nil {
		return nil, err
	}
	return s.RunDAG(ctx, dag)
}

// RunDAG executes a validated DAG.
//
// If every step succeeds the result is returned with a nil error. Otherwise
// the partial result is returned together with a *BuildFailedError. If ctx is
// done before a step starts, the build is aborted and only ctx.Err() is
// returned.
func (s *Scheduler) RunDAG(ctx context.Context, dag *kdag.DAG) (*BuildResult, error) {
	b := &build{
		dag:      dag,
		agg:      NewAggregator(),
		outcomes: make([]StepOutcome, dag.Len()),
		status:   make(map[kdag.StepID]Status, dag.Len()),
		log:      s.log,
		observer: s.observer,
	}

	s.log.Info("Build started", "steps", dag.Len(), "parallelism", max(s.parallelism, 1))

	var err error
	if s.parallelism > 1 {
		err = s.runParallel(ctx, b)
	} else {
		err = s.runSerial(ctx, b)
	}
	if err != nil {
		s.log.Error(err, "Build aborted")
		return nil, err
	}

	b.agg.Seal()
	items, err := b.agg.Snapshot()
	if err != nil {
		return nil, err
	}
	res := newBuildResult(items, b.outcomes)

	var stepErrs []error
	for _, o := range b.outcomes {
		if o.Err != nil {
			stepErrs = append(stepErrs, o.Err)
		}
	}
	var buildErr error
	if len(stepErrs) > 0 {
		buildErr = newBuildFailedError(stepErrs...)
	}

	if bo, ok := s.observer.(BuildObserver); ok {
		bo.BuildFinished(res, buildErr)
	}
	if buildErr != nil {
		return res, buildErr
	}
	return res, nil
}

func (s *Scheduler) runSerial(ctx context.Context, b *build) error {
	for _, id := range b.dag.Order() {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.execute(ctx, id)
	}
	return nil
}

// runParallel runs one level at a time. All producers of a step sit in
// earlier levels, so a step never observes a partially merged input.
func (s *Scheduler) runParallel(ctx context.Context, b *build) error {
	for _, level := range b.dag.Levels() {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.parallelism)
		for _, id := range level {
			id := id
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b.execute(gctx, id)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// build is the state of a single run.
type build struct {
	dag      *kdag.DAG
	agg      *Aggregator
	log      logr.Logger
	observer Observer

	mu       sync.Mutex
	outcomes []StepOutcome
	status   map[kdag.StepID]Status
}

func (b *build) record(o StepOutcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcomes[o.Position] = o
	b.status[kdag.StepID(o.Step)] = o.Status
}

// blockedBy returns the producers of id that did not succeed.
func (b *build) blockedBy(node *kdag.Node) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var upstream []string
	for _, p := range node.Parents {
		if b.status[p] != StatusSucceeded {
			upstream = append(upstream, string(p))
		}
	}
	return upstream
}

func (b *build) execute(ctx context.Context, id kdag.StepID) {
	node, _ := b.dag.Node(id)
	pos, _ := b.dag.Position(id)
	name := string(id)

	if upstream := b.blockedBy(node); len(upstream) > 0 {
		err := &StepSkippedError{Step: name, Upstream: upstream}
		b.record(StepOutcome{Step: name, Position: pos, Status: StatusSkipped, Err: err})
		b.observer.StepSkipped(name, err)
		return
	}

	byKind := make(map[kitem.ItemKind][]kitem.Item, len(node.Step.Consumes))
	for _, kind := range node.Step.Consumes {
		byKind[kind] = b.agg.Collect(kind)
	}
	in := kstep.NewInputs(node.Step.Consumes, byKind)

	b.observer.StepStarted(name)
	start := time.Now()
	items, err := invoke(ctx, node.Step.Fn, in)
	if err == nil {
		err = checkEmitted(node.Step, items)
	}
	d := time.Since(start)

	if err != nil {
		stepErr := &StepExecutionError{Step: name, Err: err}
		b.record(StepOutcome{Step: name, Position: pos, Status: StatusFailed, Err: stepErr, Duration: d})
		b.observer.StepFailed(name, stepErr, d)
		return
	}

	grouped := make(map[kitem.ItemKind][]kitem.Item, len(node.Step.Produces))
	for _, it := range items {
		grouped[it.Kind()] = append(grouped[it.Kind()], it.WithProducer(name))
	}
	for _, kind := range node.Step.Produces {
		if !b.agg.Merge(name, pos, kind, grouped[kind]) {
			b.log.Info("Ignoring repeated merge", "step", name, "kind", kind)
		}
	}

	b.record(StepOutcome{Step: name, Position: pos, Status: StatusSucceeded, Produced: len(items), Duration: d})
	b.observer.StepSucceeded(name, len(items), d)
}

func invoke(ctx context.Context, fn kstep.StepFunc, in kstep.Inputs) (items []kitem.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	return fn(ctx, in)
}

// checkEmitted rejects zero items and items of kinds the step did not declare.
// A rejected emission discards all items of the step.
func checkEmitted(step kstep.Step, items []kitem.Item) error {
	for i, it := range items {
		if it.IsZero() {
			return fmt.Errorf("%w at index %d", ErrNilItem, i)
		}
		if !step.ProducesKind(it.Kind()) {
			return fmt.Errorf("%w: %s", ErrUndeclaredKind, it.Kind())
		}
	}
	return nil
}
