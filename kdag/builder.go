package kdag

import (
	"github.com/birdayz/kbuild/kstep"
)

// Builder collects steps and turns them into a DAG. It is the registry of a
// build: steps are indexed by the item kinds they produce and consume.
//
// IMPORTANT: Builder is NOT safe for concurrent use. Callers that register from
// several goroutines (e.g. package init functions) must synchronize. The
// resulting DAG is immutable and safe to use concurrently.
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new DAG builder.
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// Register adds a step. It fails with *DuplicateStepError if the name is
// taken and with *SelfLoopError if the step consumes a kind it produces.
// A failed call leaves the builder unchanged.
func (b *Builder) Register(step kstep.Step) error {
	return b.graph.AddNode(step)
}

// MustRegister is like Register but panics on error.
func (b *Builder) MustRegister(step kstep.Step) {
	must(b.Register(step))
}

// Steps returns all registered steps in registration order.
func (b *Builder) Steps() []kstep.Step {
	out := make([]kstep.Step, 0, len(b.graph.NodeOrder))
	for _, id := range b.graph.NodeOrder {
		out = append(out, b.graph.Nodes[id].Step)
	}
	return out
}

// Len returns the number of registered steps.
func (b *Builder) Len() int {
	return len(b.graph.NodeOrder)
}

// GetGraph returns the underlying graph for read-only access.
func (b *Builder) GetGraph() *Graph {
	return b.graph
}

// GetNode returns a node by ID if it exists.
func (b *Builder) GetNode(id StepID) (*Node, bool) {
	node, ok := b.graph.Nodes[id]
	return node, ok
}

// Build derives the dependency edges, validates the graph and computes the
// execution order. The builder can keep accepting steps afterwards; the
// returned DAG is a snapshot.
func (b *Builder) Build() (*DAG, error) {
	g := b.graph.Clone()
	g.Link()

	if err := g.Validate(); err != nil {
		return nil, err
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}

	positions := make(map[StepID]int, len(order))
	for i, id := range order {
		positions[id] = i
	}

	return &DAG{
		graph:     g,
		order:     order,
		levels:    g.computeLevels(order),
		positions: positions,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *DAG {
	dag, err := b.Build()
	if err != nil {
		panic(err)
	}
	return dag
}

// FromSteps registers every step in order on a fresh builder and builds it.
func FromSteps(steps []kstep.Step) (*DAG, error) {
	b := NewBuilder()
	for _, s := range steps {
		if err := b.Register(s); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
