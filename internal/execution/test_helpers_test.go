package execution

import (
	"context"
	"sync"
	"time"

	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

var (
	summaryKind = kitem.NewKind[[]string]("Summary")
	levelA      = kitem.NewKind[int]("LevelA")
	levelB      = kitem.NewKind[int]("LevelB")
	levelC      = kitem.NewKind[int]("LevelC")
)

// callCounter counts step invocations by name.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
	order []string
}

func newCallCounter() *callCounter {
	return &callCounter{calls: make(map[string]int)}
}

func (c *callCounter) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	c.order = append(c.order, name)
}

func (c *callCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// featureStep emits one Feature and counts its invocation.
func featureStep(c *callCounter, name, feature string) kstep.Step {
	s := kstep.Feature(name, feature)
	fn := s.Fn
	s.Fn = func(ctx context.Context, in kstep.Inputs) ([]kitem.Item, error) {
		c.hit(name)
		return fn(ctx, in)
	}
	return s
}

// summaryStep consumes every Feature and emits the list of names.
func summaryStep(c *callCounter, name string, seen *[]string) kstep.Step {
	return kstep.Step{
		Name:     name,
		Consumes: []kitem.ItemKind{kitem.Feature.Name()},
		Produces: []kitem.ItemKind{summaryKind.Name()},
		Fn: func(_ context.Context, in kstep.Inputs) ([]kitem.Item, error) {
			c.hit(name)
			names := kstep.Values(in, kitem.Feature)
			if seen != nil {
				*seen = names
			}
			return []kitem.Item{summaryKind.MustNew(names)}, nil
		},
	}
}

// numStep forwards every consumed int in input order, then appends value.
func numStep(c *callCounter, name string, consumes []*kitem.Kind[int], produces *kitem.Kind[int], value int) kstep.Step {
	s := kstep.Step{
		Name:     name,
		Produces: []kitem.ItemKind{produces.Name()},
	}
	for _, k := range consumes {
		s.Consumes = append(s.Consumes, k.Name())
	}
	s.Fn = func(_ context.Context, in kstep.Inputs) ([]kitem.Item, error) {
		c.hit(name)
		var out []kitem.Item
		for _, k := range consumes {
			for _, v := range kstep.Values(in, k) {
				out = append(out, produces.MustNew(v))
			}
		}
		return append(out, produces.MustNew(value)), nil
	}
	return s
}

func failingStep(c *callCounter, name string, consumes, produces []kitem.ItemKind, err error) kstep.Step {
	return kstep.Step{
		Name:     name,
		Consumes: consumes,
		Produces: produces,
		Fn: func(context.Context, kstep.Inputs) ([]kitem.Item, error) {
			c.hit(name)
			return nil, err
		},
	}
}

// event is one observer callback.
type event struct {
	kind string
	step string
}

type recordingObserver struct {
	mu       sync.Mutex
	events   []event
	finished int
	finalErr error
}

func (r *recordingObserver) add(kind, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: kind, step: step})
}

func (r *recordingObserver) StepStarted(step string) { r.add("started", step) }

func (r *recordingObserver) StepSucceeded(step string, _ int, _ time.Duration) {
	r.add("succeeded", step)
}

func (r *recordingObserver) StepFailed(step string, _ error, _ time.Duration) {
	r.add("failed", step)
}

func (r *recordingObserver) StepSkipped(step string, _ error) { r.add("skipped", step) }

func (r *recordingObserver) BuildFinished(_ *BuildResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	r.finalErr = err
}
