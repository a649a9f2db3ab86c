package kitem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKind is returned when an ItemKind is empty or malformed.
var ErrInvalidKind = errors.New("invalid item kind")

// ErrInvalidItem is returned when a value is rejected by its kind's validator.
var ErrInvalidItem = errors.New("invalid item")

// ItemKind tags a category of build artifact, e.g. "Feature" or "ReflectiveClass".
// ItemKinds must be non-empty and cannot contain whitespace.
type ItemKind string

// Validate checks if the ItemKind is valid.
func (k ItemKind) Validate() error {
	if k == "" {
		return fmt.Errorf("%w: ItemKind cannot be empty", ErrInvalidKind)
	}
	if strings.ContainsAny(string(k), " \t\n\r") {
		return fmt.Errorf("%w: ItemKind %q cannot contain whitespace", ErrInvalidKind, k)
	}
	return nil
}

func (k ItemKind) String() string {
	return string(k)
}

// Item is an immutable value of a single ItemKind produced by exactly one step.
//
// Items can only be created through Kind.New. The payload is shared read-only
// with every consumer, so payload types should be values, not pointers into
// mutable state.
type Item struct {
	kind     ItemKind
	value    any
	key      string
	producer string
}

// Kind returns the item's kind.
func (i Item) Kind() ItemKind {
	return i.kind
}

// Value returns the untyped payload. Use Kind.Value for typed access.
func (i Item) Value() any {
	return i.value
}

// Key returns the identity key used for set-union deduplication.
// It is empty for kinds that keep every emitted item.
func (i Item) Key() string {
	return i.key
}

// Producer returns the name of the step that emitted the item, or the empty
// string if the item has not passed through a scheduler yet.
func (i Item) Producer() string {
	return i.producer
}

// IsZero reports whether i is the zero Item.
func (i Item) IsZero() bool {
	return i.kind == ""
}

// WithProducer returns a copy of the item attributed to the given step.
func (i Item) WithProducer(step string) Item {
	i.producer = step
	return i
}

func (i Item) String() string {
	if i.key != "" {
		return fmt.Sprintf("%s(%s)", i.kind, i.key)
	}
	return fmt.Sprintf("%s(%v)", i.kind, i.value)
}
