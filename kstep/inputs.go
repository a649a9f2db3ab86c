package kstep

import (
	"github.com/birdayz/kbuild/kitem"
)

// Inputs is a read-only view of the items a step consumes.
// Each step invocation gets its own Inputs; slices handed out are copies.
type Inputs struct {
	kinds []kitem.ItemKind
	items map[kitem.ItemKind][]kitem.Item
}

// NewInputs builds an Inputs view over the given kinds. Missing kinds yield
// empty collections. The item slices are copied.
func NewInputs(kinds []kitem.ItemKind, byKind map[kitem.ItemKind][]kitem.Item) Inputs {
	in := Inputs{
		kinds: append([]kitem.ItemKind(nil), kinds...),
		items: make(map[kitem.ItemKind][]kitem.Item, len(kinds)),
	}
	for _, k := range kinds {
		in.items[k] = append([]kitem.Item(nil), byKind[k]...)
	}
	return in
}

// Items returns the consumed items of kind, ordered by producing-step
// execution order.
func (in Inputs) Items(kind kitem.ItemKind) []kitem.Item {
	return append([]kitem.Item(nil), in.items[kind]...)
}

// Kinds returns the consumed kinds in declaration order.
func (in Inputs) Kinds() []kitem.ItemKind {
	return append([]kitem.ItemKind(nil), in.kinds...)
}

// Len returns the total number of consumed items.
func (in Inputs) Len() int {
	n := 0
	for _, items := range in.items {
		n += len(items)
	}
	return n
}

// Values returns the typed payloads of the consumed items of kind k.
func Values[T any](in Inputs, k *kitem.Kind[T]) []T {
	return k.Values(in.items[k.Name()])
}
