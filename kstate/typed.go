package kstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/birdayz/kbuild/kserde"
)

// TypedStore encodes values of type V with a serde on top of a Store.
//
// Example:
//
//	manifests := kstate.NewTypedStore(store, kmanifest.Serde)
//	prev, ok, err := manifests.Latest(ctx)
type TypedStore[V any] struct {
	store Store
	serde kserde.Serde[V]
}

func NewTypedStore[V any](store Store, serde kserde.Serde[V]) *TypedStore[V] {
	return &TypedStore[V]{store: store, serde: serde}
}

func (s *TypedStore[V]) Put(ctx context.Context, key string, v V) error {
	b, err := s.serde.Serializer(v)
	if err != nil {
		return fmt.Errorf("store %s: encode %q: %w", s.store.Name(), key, err)
	}
	return s.store.Put(ctx, key, b)
}

// Get returns (value, true, nil) if found and (zero, false, nil) if not.
func (s *TypedStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	return s.decode(s.store.Get(ctx, key))
}

// Latest returns the most recently written value.
func (s *TypedStore[V]) Latest(ctx context.Context) (V, bool, error) {
	_, b, err := s.store.Latest(ctx)
	return s.decode(b, err)
}

func (s *TypedStore[V]) decode(b []byte, err error) (V, bool, error) {
	var zero V
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	v, err := s.serde.Deserializer(b)
	if err != nil {
		return zero, false, fmt.Errorf("store %s: decode: %w", s.store.Name(), err)
	}
	return v, true, nil
}
