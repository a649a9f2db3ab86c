package kstep

import (
	"context"

	"github.com/birdayz/kbuild/kitem"
)

// StepFunc is the invocation logic of a build step. It receives the items of
// every consumed kind and returns the items it produces. Returning no items is
// a valid, empty contribution.
type StepFunc func(ctx context.Context, in Inputs) ([]kitem.Item, error)

// Step is a named unit of build logic with declared inputs and outputs.
type Step struct {
	// Name identifies the step. Unique within a registry.
	Name string

	// Consumes lists the item kinds this step reads, in declaration order.
	Consumes []kitem.ItemKind

	// Produces lists the item kinds this step may emit.
	Produces []kitem.ItemKind

	Fn StepFunc
}

// ConsumesKind reports whether the step declares kind as an input.
func (s Step) ConsumesKind(kind kitem.ItemKind) bool {
	for _, k := range s.Consumes {
		if k == kind {
			return true
		}
	}
	return false
}

// ProducesKind reports whether the step declares kind as an output.
func (s Step) ProducesKind(kind kitem.ItemKind) bool {
	for _, k := range s.Produces {
		if k == kind {
			return true
		}
	}
	return false
}

// Feature returns a step that emits a single Feature item. This is the whole
// build-time footprint of most integrations.
func Feature(stepName, feature string) Step {
	return Step{
		Name:     stepName,
		Produces: []kitem.ItemKind{kitem.Feature.Name()},
		Fn: func(context.Context, Inputs) ([]kitem.Item, error) {
			it, err := kitem.Feature.New(feature)
			if err != nil {
				return nil, err
			}
			return []kitem.Item{it}, nil
		},
	}
}

// Emit wraps values into items of kind k. It stops at the first rejected value.
func Emit[T any](k *kitem.Kind[T], values ...T) ([]kitem.Item, error) {
	out := make([]kitem.Item, 0, len(values))
	for _, v := range values {
		it, err := k.New(v)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
