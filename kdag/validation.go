package kdag

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"
)

// MaxStepsPerBuild bounds the graph size to prevent pathological builds.
const MaxStepsPerBuild = 10000

// Validate checks size limits and rejects dependency cycles.
// Link must have been called first.
func (g *Graph) Validate() error {
	if len(g.Nodes) > MaxStepsPerBuild {
		return fmt.Errorf("%w: step count %d exceeds maximum %d",
			ErrTooManySteps, len(g.Nodes), MaxStepsPerBuild)
	}

	if err := g.detectCycles(); err != nil {
		return err
	}

	return nil
}

const (
	white = iota // not visited
	gray         // on the current DFS path
	black        // fully explored
)

// detectCycles runs a depth-first search with visiting/visited coloring.
// Roots and children are visited in lexicographic order. Every back edge
// yields a cycle; each is rotated to start at its smallest step name and the
// lexicographically smallest one is reported as *CyclicDependencyError.
func (g *Graph) detectCycles() error {
	names := make([]StepID, 0, len(g.Nodes))
	for id := range g.Nodes {
		names = append(names, id)
	}
	slices.Sort(names)

	color := make(map[StepID]int, len(g.Nodes))
	var path []StepID
	var best []string

	var dfs func(StepID)
	dfs = func(id StepID) {
		color[id] = gray
		path = append(path, id)

		children := append([]StepID(nil), g.Nodes[id].Children...)
		slices.Sort(children)

		for _, child := range children {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				start := slices.Index(path, child)
				cycle := canonicalCycle(path[start:])
				if best == nil || slices.Compare(cycle, best) < 0 {
					best = cycle
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
	}

	for _, id := range names {
		if color[id] == white {
			dfs(id)
		}
	}

	if best != nil {
		return &CyclicDependencyError{Cycle: best}
	}
	return nil
}

// canonicalCycle rotates the cycle so it starts at its smallest member and
// closes it by repeating the first element.
func canonicalCycle(members []StepID) []string {
	minIdx := 0
	for i, id := range members {
		if id < members[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(members)+1)
	for i := range members {
		out = append(out, string(members[(minIdx+i)%len(members)]))
	}
	return append(out, out[0])
}

// insertSorted inserts id into a slice kept sorted by registration index.
func (g *Graph) insertSorted(queue []StepID, id StepID) []StepID {
	idx := sort.Search(len(queue), func(i int) bool {
		return g.Nodes[queue[i]].Index >= g.Nodes[id].Index
	})
	return slices.Insert(queue, idx, id)
}

// topologicalSort creates a deterministic topological ordering using Kahn's
// algorithm. Among ready steps, the one registered first runs first.
// Time complexity: O(V log V + E).
func (g *Graph) topologicalSort() ([]StepID, error) {
	inDegree := make(map[StepID]int, len(g.Nodes))
	for _, node := range g.Nodes {
		inDegree[node.ID] = len(node.Parents)
	}

	queue := make([]StepID, 0, len(g.Nodes))
	for _, id := range g.NodeOrder {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]StepID, 0, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, childID := range g.Nodes[id].Children {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				queue = g.insertSorted(queue, childID)
			}
		}
	}

	if len(result) != len(g.Nodes) {
		return nil, fmt.Errorf("%w: topological sort failed", ErrCycleDetected)
	}

	return result, nil
}

// computeLevels groups steps by dependency depth: level 0 has no parents, and
// every step sits one level after its deepest parent. Steps on the same level
// have no path between them. Within a level, steps keep topological order.
func (g *Graph) computeLevels(order []StepID) [][]StepID {
	depth := make(map[StepID]int, len(order))
	maxDepth := -1
	for _, id := range order {
		d := 0
		for _, p := range g.Nodes[id].Parents {
			if depth[p]+1 > d {
				d = depth[p] + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]StepID, maxDepth+1)
	for _, id := range order {
		levels[depth[id]] = append(levels[depth[id]], id)
	}
	return levels
}
