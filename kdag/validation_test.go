package kdag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name      string
		register  func(b *Builder)
		wantCycle []string
	}{
		{
			name: "acyclic chain",
			register: func(b *Builder) {
				b.MustRegister(testStep("a", nil, []string{"A"}))
				b.MustRegister(testStep("b", []string{"A"}, []string{"B"}))
				b.MustRegister(testStep("c", []string{"B"}, nil))
			},
		},
		{
			name: "two step cycle",
			register: func(b *Builder) {
				b.MustRegister(testStep("y", []string{"X"}, []string{"Y"}))
				b.MustRegister(testStep("x", []string{"Y"}, []string{"X"}))
			},
			wantCycle: []string{"x", "y", "x"},
		},
		{
			name: "three step cycle reported from smallest name",
			register: func(b *Builder) {
				b.MustRegister(testStep("c", []string{"B"}, []string{"C"}))
				b.MustRegister(testStep("b", []string{"A"}, []string{"B"}))
				b.MustRegister(testStep("a", []string{"C"}, []string{"A"}))
			},
			wantCycle: []string{"a", "b", "c", "a"},
		},
		{
			name: "smallest of two disjoint cycles",
			register: func(b *Builder) {
				b.MustRegister(testStep("p", []string{"Q"}, []string{"P"}))
				b.MustRegister(testStep("q", []string{"P"}, []string{"Q"}))
				b.MustRegister(testStep("m", []string{"N"}, []string{"M"}))
				b.MustRegister(testStep("n", []string{"M"}, []string{"N"}))
			},
			wantCycle: []string{"m", "n", "m"},
		},
		{
			name: "cycle behind an acyclic prefix",
			register: func(b *Builder) {
				b.MustRegister(testStep("root", nil, []string{"R"}))
				b.MustRegister(testStep("k", []string{"R", "L"}, []string{"K"}))
				b.MustRegister(testStep("l", []string{"K"}, []string{"L"}))
			},
			wantCycle: []string{"k", "l", "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.register(b)
			g := b.GetGraph().Clone()
			g.Link()

			err := g.Validate()
			if tt.wantCycle == nil {
				assert.NoError(t, err)
				return
			}
			var cyc *CyclicDependencyError
			assert.True(t, errors.As(err, &cyc))
			assert.Equal(t, tt.wantCycle, cyc.Cycle)
		})
	}
}

func TestTopologicalSortRespectsDependencies(t *testing.T) {
	b := NewBuilder()
	// Registered consumer-first on purpose.
	b.MustRegister(testStep("package", []string{"Config"}, nil))
	b.MustRegister(testStep("config", []string{"Feature", "Class"}, []string{"Config"}))
	b.MustRegister(testStep("classes", nil, []string{"Class"}))
	b.MustRegister(testStep("feature", nil, []string{"Feature"}))

	dag := b.MustBuild()
	order := dag.Order()

	pos := map[StepID]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		node, _ := dag.Node(id)
		for _, p := range node.Parents {
			assert.True(t, pos[p] < pos[id], "%s must run before %s", p, id)
		}
	}
	assert.Equal(t, ids("classes", "feature", "config", "package"), order)
}

func TestStepIDValidate(t *testing.T) {
	assert.NoError(t, StepID("aws-secrets-manager").Validate())
	assert.True(t, errors.Is(StepID("").Validate(), ErrInvalidStepName))
	assert.True(t, errors.Is(StepID("a\tb").Validate(), ErrInvalidStepName))
}
