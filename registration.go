package kbuild

import (
	"context"
	"fmt"
	"sync"

	"github.com/birdayz/kbuild/kdag"
	"github.com/birdayz/kbuild/kstep"
)

// Registry collects the steps contributed by extensions. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	builder *kdag.Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builder: kdag.NewBuilder()}
}

// Register adds a step. It fails with *DuplicateStepError if the name is
// taken and with *SelfLoopError if the step consumes a kind it produces. A
// failed call leaves the registry unchanged.
func (r *Registry) Register(step Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builder.Register(step)
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(step Step) {
	must(r.Register(step))
}

// RegisterFeature registers a step that emits a single Feature item.
func (r *Registry) RegisterFeature(stepName, feature string) error {
	return r.Register(kstep.Feature(stepName, feature))
}

// AllSteps returns every registered step in registration order.
func (r *Registry) AllSteps() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builder.Steps()
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builder.Len()
}

// Build validates the registered steps and returns an immutable DAG.
func (r *Registry) Build() (*DAG, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builder.Build()
}

// Run builds the DAG and executes it with a new scheduler.
func (r *Registry) Run(ctx context.Context, opts ...Option) (*BuildResult, error) {
	dag, err := r.Build()
	if err != nil {
		return nil, err
	}
	return NewScheduler(opts...).RunDAG(ctx, dag)
}

// Extension contributes steps to a registry.
type Extension interface {
	Name() string
	Register(r *Registry) error
}

// RegisterExtensions registers every extension in order and stops at the
// first failure.
func (r *Registry) RegisterExtensions(exts ...Extension) error {
	for _, ext := range exts {
		if err := ext.Register(r); err != nil {
			return fmt.Errorf("extension %s: %w", ext.Name(), err)
		}
	}
	return nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that extensions populate
// from their init functions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a step to the default registry.
func Register(step Step) error {
	return defaultRegistry.Register(step)
}

// MustRegister adds a step to the default registry and panics on error.
// Intended for init functions.
func MustRegister(step Step) {
	defaultRegistry.MustRegister(step)
}

// MustRegisterExtension registers ext with the default registry and panics on
// error.
func MustRegisterExtension(ext Extension) {
	must(defaultRegistry.RegisterExtensions(ext))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
