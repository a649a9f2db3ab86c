package kdag

import (
	"fmt"
	"strings"

	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

// StepID is a strongly-typed identifier for graph nodes.
// StepIDs must be non-empty and cannot contain whitespace.
type StepID string

// Validate checks if the StepID is valid.
// Returns ErrInvalidStepName if the ID is empty or contains whitespace.
func (id StepID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: step name cannot be empty", ErrInvalidStepName)
	}
	if strings.ContainsAny(string(id), " \t\n\r") {
		return fmt.Errorf("%w: step name %q cannot contain whitespace", ErrInvalidStepName, id)
	}
	return nil
}

// Node is the build-time representation of a registered step.
type Node struct {
	ID StepID

	// Index is the registration position, used to break ties deterministically.
	Index int

	// Parent edges (steps producing a kind this step consumes)
	Parents []StepID

	// Child edges (steps consuming a kind this step produces)
	Children []StepID

	Step kstep.Step
}

// Graph is the build-time dependency graph. Edges are derived from the
// produce/consume declarations by Link; they are never declared directly.
type Graph struct {
	Nodes map[StepID]*Node

	// Deterministic node ordering (registration order)
	NodeOrder []StepID

	// Producers and Consumers index steps by item kind, in registration order.
	Producers map[kitem.ItemKind][]StepID
	Consumers map[kitem.ItemKind][]StepID
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[StepID]*Node),
		NodeOrder: make([]StepID, 0),
		Producers: make(map[kitem.ItemKind][]StepID),
		Consumers: make(map[kitem.ItemKind][]StepID),
	}
}

// AddNode validates a step and adds it to the graph.
// The graph is left unchanged when an error is returned.
func (g *Graph) AddNode(step kstep.Step) error {
	id := StepID(step.Name)
	if err := id.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[id]; exists {
		return &DuplicateStepError{Name: step.Name}
	}
	if step.Fn == nil {
		return fmt.Errorf("%w: %q", ErrNilStepFunc, step.Name)
	}

	consumes, err := normalizeKinds(step.Consumes)
	if err != nil {
		return fmt.Errorf("step %q consumes: %w", step.Name, err)
	}
	produces, err := normalizeKinds(step.Produces)
	if err != nil {
		return fmt.Errorf("step %q produces: %w", step.Name, err)
	}

	var loops []kitem.ItemKind
	for _, c := range consumes {
		for _, p := range produces {
			if c == p {
				loops = append(loops, c)
			}
		}
	}
	if len(loops) > 0 {
		return &SelfLoopError{Step: step.Name, Kinds: loops}
	}

	step.Consumes = consumes
	step.Produces = produces

	g.Nodes[id] = &Node{
		ID:       id,
		Index:    len(g.NodeOrder),
		Parents:  []StepID{},
		Children: []StepID{},
		Step:     step,
	}
	g.NodeOrder = append(g.NodeOrder, id)
	for _, k := range consumes {
		g.Consumers[k] = append(g.Consumers[k], id)
	}
	for _, k := range produces {
		g.Producers[k] = append(g.Producers[k], id)
	}
	return nil
}

// normalizeKinds validates kinds and drops duplicates, keeping first occurrence.
func normalizeKinds(kinds []kitem.ItemKind) ([]kitem.ItemKind, error) {
	out := make([]kitem.ItemKind, 0, len(kinds))
	seen := make(map[kitem.ItemKind]bool, len(kinds))
	for _, k := range kinds {
		if err := k.Validate(); err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// Link derives Parents and Children from the produce/consume index.
// Edge lists are in registration order and contain no duplicates.
func (g *Graph) Link() {
	for _, id := range g.NodeOrder {
		n := g.Nodes[id]
		n.Parents = n.Parents[:0]
		n.Children = n.Children[:0]
	}

	for _, id := range g.NodeOrder {
		child := g.Nodes[id]
		seen := make(map[StepID]bool)
		for _, kind := range child.Step.Consumes {
			for _, parentID := range g.Producers[kind] {
				if seen[parentID] {
					continue
				}
				seen[parentID] = true
				child.Parents = append(child.Parents, parentID)
			}
		}
		g.sortByIndex(child.Parents)
	}

	// Children lists follow from parents; iterate in registration order so
	// each list ends up ordered by child index.
	for _, id := range g.NodeOrder {
		for _, parentID := range g.Nodes[id].Parents {
			parent := g.Nodes[parentID]
			parent.Children = append(parent.Children, id)
		}
	}
}

func (g *Graph) sortByIndex(ids []StepID) {
	// insertion sort, edge lists are short
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && g.Nodes[ids[j]].Index < g.Nodes[ids[j-1]].Index; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Clone returns a deep copy of the graph. Steps are copied by value.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.NodeOrder = append(c.NodeOrder, g.NodeOrder...)
	for id, n := range g.Nodes {
		cp := *n
		cp.Parents = append([]StepID{}, n.Parents...)
		cp.Children = append([]StepID{}, n.Children...)
		cp.Step.Consumes = append([]kitem.ItemKind(nil), n.Step.Consumes...)
		cp.Step.Produces = append([]kitem.ItemKind(nil), n.Step.Produces...)
		c.Nodes[id] = &cp
	}
	for k, ids := range g.Producers {
		c.Producers[k] = append([]StepID(nil), ids...)
	}
	for k, ids := range g.Consumers {
		c.Consumers[k] = append([]StepID(nil), ids...)
	}
	return c
}

// Descendants returns every step that transitively depends on id, in
// registration order.
func (g *Graph) Descendants(id StepID) []StepID {
	visited := make(map[StepID]bool)
	var dfs func(StepID)
	dfs = func(cur StepID) {
		for _, child := range g.Nodes[cur].Children {
			if !visited[child] {
				visited[child] = true
				dfs(child)
			}
		}
	}
	if _, ok := g.Nodes[id]; !ok {
		return nil
	}
	dfs(id)

	out := make([]StepID, 0, len(visited))
	for _, nid := range g.NodeOrder {
		if visited[nid] {
			out = append(out, nid)
		}
	}
	return out
}
