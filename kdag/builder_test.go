package kdag

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/kbuild/kitem"
	"github.com/birdayz/kbuild/kstep"
)

func noop(context.Context, kstep.Inputs) ([]kitem.Item, error) { return nil, nil }

// testStep builds a step from kind names.
func testStep(name string, consumes, produces []string) kstep.Step {
	s := kstep.Step{Name: name, Fn: noop}
	for _, c := range consumes {
		s.Consumes = append(s.Consumes, kitem.ItemKind(c))
	}
	for _, p := range produces {
		s.Produces = append(s.Produces, kitem.ItemKind(p))
	}
	return s
}

func ids(names ...string) []StepID {
	out := make([]StepID, len(names))
	for i, n := range names {
		out[i] = StepID(n)
	}
	return out
}

func TestNewBuilder(t *testing.T) {
	b := NewBuilder()
	assert.NotZero(t, b)
	assert.NotZero(t, b.GetGraph())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, len(b.GetGraph().NodeOrder))
}

func TestRegister(t *testing.T) {
	t.Run("valid step", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.Register(testStep("a", nil, []string{"Feature"})))

		node, ok := b.GetNode("a")
		assert.True(t, ok)
		assert.Equal(t, 0, node.Index)
		assert.Equal(t, ids("a"), b.GetGraph().Producers["Feature"])
	})

	t.Run("duplicate name leaves state unchanged", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.Register(testStep("a", nil, []string{"Feature"})))

		before := b.Steps()
		err := b.Register(testStep("a", []string{"Other"}, []string{"Summary"}))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateStep))

		var dup *DuplicateStepError
		assert.True(t, errors.As(err, &dup))
		assert.Equal(t, "a", dup.Name)

		after := b.Steps()
		assert.Equal(t, len(before), len(after))
		assert.Equal(t, before[0].Name, after[0].Name)
		assert.Equal(t, before[0].Produces, after[0].Produces)
		assert.Equal(t, 0, len(b.GetGraph().Consumers["Other"]))
		assert.Equal(t, 0, len(b.GetGraph().Producers["Summary"]))
	})

	t.Run("self loop rejected", func(t *testing.T) {
		b := NewBuilder()
		err := b.Register(testStep("loop", []string{"Feature"}, []string{"Feature"}))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrSelfLoop))

		var sl *SelfLoopError
		assert.True(t, errors.As(err, &sl))
		assert.Equal(t, []kitem.ItemKind{"Feature"}, sl.Kinds)
		assert.Equal(t, 0, b.Len())
	})

	t.Run("invalid names", func(t *testing.T) {
		b := NewBuilder()
		assert.True(t, errors.Is(b.Register(testStep("", nil, nil)), ErrInvalidStepName))
		assert.True(t, errors.Is(b.Register(testStep("has space", nil, nil)), ErrInvalidStepName))
	})

	t.Run("invalid kind", func(t *testing.T) {
		b := NewBuilder()
		err := b.Register(testStep("a", []string{""}, nil))
		assert.True(t, errors.Is(err, kitem.ErrInvalidKind))
		assert.Equal(t, 0, b.Len())
	})

	t.Run("nil func", func(t *testing.T) {
		b := NewBuilder()
		err := b.Register(kstep.Step{Name: "a"})
		assert.True(t, errors.Is(err, ErrNilStepFunc))
	})

	t.Run("duplicate kinds collapsed", func(t *testing.T) {
		b := NewBuilder()
		assert.NoError(t, b.Register(testStep("a", []string{"X", "Y", "X"}, nil)))
		node, _ := b.GetNode("a")
		assert.Equal(t, []kitem.ItemKind{"X", "Y"}, node.Step.Consumes)
	})

	t.Run("MustRegister panics", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("a", nil, nil))
		assert.Panics(t, func() { b.MustRegister(testStep("a", nil, nil)) })
	})
}

func TestSteps(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(testStep("c", nil, nil))
	b.MustRegister(testStep("a", nil, nil))
	b.MustRegister(testStep("b", nil, nil))

	names := []string{}
	for _, s := range b.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestBuild(t *testing.T) {
	t.Run("edges derived from kinds", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("summary", []string{"Feature"}, []string{"Summary"}))
		b.MustRegister(testStep("a", nil, []string{"Feature"}))
		b.MustRegister(testStep("b", nil, []string{"Feature"}))

		dag, err := b.Build()
		assert.NoError(t, err)

		summary, _ := dag.Node("summary")
		assert.Equal(t, ids("a", "b"), summary.Parents)
		a, _ := dag.Node("a")
		assert.Equal(t, ids("summary"), a.Children)

		assert.Equal(t, ids("a", "b", "summary"), dag.Order())
		assert.Equal(t, 3, dag.Len())
	})

	t.Run("registration order breaks ties", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("z", nil, nil))
		b.MustRegister(testStep("y", nil, nil))
		b.MustRegister(testStep("x", nil, nil))

		dag := b.MustBuild()
		assert.Equal(t, ids("z", "y", "x"), dag.Order())
	})

	t.Run("consuming a kind nobody produces is allowed", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("lonely", []string{"Nothing"}, nil))
		dag, err := b.Build()
		assert.NoError(t, err)
		assert.Equal(t, ids("lonely"), dag.Order())
	})

	t.Run("cycle fails", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("a", []string{"B"}, []string{"A"}))
		b.MustRegister(testStep("b", []string{"A"}, []string{"B"}))

		_, err := b.Build()
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrCycleDetected))

		var cyc *CyclicDependencyError
		assert.True(t, errors.As(err, &cyc))
		assert.Equal(t, []string{"a", "b", "a"}, cyc.Cycle)
		assert.Contains(t, err.Error(), "a -> b -> a")
	})

	t.Run("dag is a snapshot", func(t *testing.T) {
		b := NewBuilder()
		b.MustRegister(testStep("a", nil, []string{"Feature"}))
		dag := b.MustBuild()

		b.MustRegister(testStep("b", []string{"Feature"}, nil))
		assert.Equal(t, 1, dag.Len())
		a, _ := dag.Node("a")
		assert.Equal(t, 0, len(a.Children))
	})

	t.Run("from steps", func(t *testing.T) {
		dag, err := FromSteps([]kstep.Step{
			testStep("a", nil, []string{"Feature"}),
			testStep("b", []string{"Feature"}, nil),
		})
		assert.NoError(t, err)
		assert.Equal(t, ids("a", "b"), dag.Order())

		_, err = FromSteps([]kstep.Step{testStep("a", nil, nil), testStep("a", nil, nil)})
		assert.True(t, errors.Is(err, ErrDuplicateStep))
	})
}

func TestLevelsAndPositions(t *testing.T) {
	b := NewBuilder()
	b.MustRegister(testStep("a", nil, []string{"A"}))
	b.MustRegister(testStep("b", nil, []string{"B"}))
	b.MustRegister(testStep("c", []string{"A", "B"}, []string{"C"}))
	b.MustRegister(testStep("d", []string{"A"}, nil))
	b.MustRegister(testStep("e", []string{"C"}, nil))

	dag := b.MustBuild()
	assert.Equal(t, ids("a", "b", "c", "d", "e"), dag.Order())
	assert.Equal(t, [][]StepID{ids("a", "b"), ids("c", "d"), ids("e")}, dag.Levels())

	pos, ok := dag.Position("d")
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
	_, ok = dag.Position("missing")
	assert.False(t, ok)

	assert.Equal(t, ids("c", "d", "e"), dag.GetGraph().Descendants("a"))
	assert.Equal(t, 0, len(dag.GetGraph().Descendants("e")))
}
