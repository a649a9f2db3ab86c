// Package kstate persists build manifests so that later builds can be compared
// with earlier ones.
package kstate

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("store: key not found")
	ErrEmptyKey    = errors.New("store: empty key")
)

// Store is a byte-level store of encoded build records keyed by build id.
// Implementations remember the most recently written key for Latest.
type Store interface {
	// Name returns the store name
	Name() string

	Put(ctx context.Context, key string, value []byte) error

	// Get returns ErrKeyNotFound if key was never written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Latest returns the key and value of the last Put.
	// Returns ErrKeyNotFound if the store is empty.
	Latest(ctx context.Context) (string, []byte, error)

	// Keys returns all keys in lexicographic order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}
