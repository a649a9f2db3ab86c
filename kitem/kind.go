package kitem

import (
	"errors"
	"fmt"
)

// Kind is a typed descriptor for an ItemKind with payload type T.
// Kinds are usually declared once as package-level variables:
//
//	var ReflectiveClass = kitem.NewKind[string]("ReflectiveClass")
type Kind[T any] struct {
	name     ItemKind
	identity func(T) string
	validate func(T) error
}

// KindOption configures a Kind.
type KindOption[T any] func(*Kind[T])

// WithIdentity gives the kind set-union semantics: items with the same identity
// key are merged into one in the build result, first producer wins.
func WithIdentity[T any](identity func(T) string) KindOption[T] {
	return func(k *Kind[T]) {
		k.identity = identity
	}
}

// WithValidator rejects payloads at creation time.
func WithValidator[T any](validate func(T) error) KindOption[T] {
	return func(k *Kind[T]) {
		k.validate = validate
	}
}

// NewKind declares a typed kind. It panics if name is not a valid ItemKind,
// since kinds are static declarations.
func NewKind[T any](name string, opts ...KindOption[T]) *Kind[T] {
	k := &Kind[T]{name: ItemKind(name)}
	if err := k.name.Validate(); err != nil {
		panic(err)
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Name returns the ItemKind tag.
func (k *Kind[T]) Name() ItemKind {
	return k.name
}

// New creates an item of this kind.
func (k *Kind[T]) New(v T) (Item, error) {
	if k.validate != nil {
		if err := k.validate(v); err != nil {
			return Item{}, fmt.Errorf("%w: %s: %w", ErrInvalidItem, k.name, err)
		}
	}
	it := Item{kind: k.name, value: v}
	if k.identity != nil {
		it.key = k.identity(v)
	}
	return it, nil
}

// MustNew is like New but panics on error.
func (k *Kind[T]) MustNew(v T) Item {
	it, err := k.New(v)
	if err != nil {
		panic(err)
	}
	return it
}

// Value returns the typed payload of it if it belongs to this kind.
func (k *Kind[T]) Value(it Item) (T, bool) {
	if it.kind != k.name {
		return *new(T), false
	}
	v, ok := it.value.(T)
	return v, ok
}

// Values extracts the payloads of all items of this kind, preserving order.
// Items of other kinds are ignored.
func (k *Kind[T]) Values(items []Item) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if v, ok := k.Value(it); ok {
			out = append(out, v)
		}
	}
	return out
}

// Feature marks an integration that should be activated during packaging.
// Feature names are unique within a build result.
var Feature = NewKind[string]("Feature",
	WithIdentity(func(name string) string { return name }),
	WithValidator(func(name string) error {
		if name == "" {
			return errors.New("feature name cannot be empty")
		}
		return nil
	}),
)
