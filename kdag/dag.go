package kdag

import (
	"github.com/birdayz/kbuild/kstep"
)

// DAG is a validated, immutable build graph with a precomputed execution order.
// It is safe for concurrent use and can be run any number of times.
type DAG struct {
	graph     *Graph
	order     []StepID
	levels    [][]StepID
	positions map[StepID]int
}

// Order returns the topological execution order. Ties are broken by
// registration order, so the order is reproducible across runs.
func (d *DAG) Order() []StepID {
	return append([]StepID(nil), d.order...)
}

// Levels returns groups of mutually independent steps. Every step in level n
// only depends on steps in levels < n.
func (d *DAG) Levels() [][]StepID {
	out := make([][]StepID, len(d.levels))
	for i, lvl := range d.levels {
		out[i] = append([]StepID(nil), lvl...)
	}
	return out
}

// Position returns the index of id in the execution order.
func (d *DAG) Position(id StepID) (int, bool) {
	p, ok := d.positions[id]
	return p, ok
}

// Node returns the node for id.
func (d *DAG) Node(id StepID) (*Node, bool) {
	n, ok := d.graph.Nodes[id]
	return n, ok
}

// Steps returns the registered steps in registration order.
func (d *DAG) Steps() []kstep.Step {
	out := make([]kstep.Step, 0, len(d.graph.NodeOrder))
	for _, id := range d.graph.NodeOrder {
		out = append(out, d.graph.Nodes[id].Step)
	}
	return out
}

// Len returns the number of steps.
func (d *DAG) Len() int {
	return len(d.order)
}

// GetGraph returns the underlying graph for read-only access.
func (d *DAG) GetGraph() *Graph {
	return d.graph
}
