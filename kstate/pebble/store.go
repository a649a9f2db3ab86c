// Package pebble provides a kstate.Store backed by a local Pebble database.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"go.uber.org/multierr"

	"github.com/birdayz/kbuild/kstate"
)

var (
	recordPrefix = []byte("record/")
	latestKey    = []byte("meta/latest")
)

type pebbleStore struct {
	name string
	db   *pebble.DB
}

// Open opens (or creates) the store under stateDir/name.
func Open(stateDir, name string) (kstate.Store, error) {
	dir := filepath.Join(stateDir, name)
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store %s at %s: %w", name, dir, err)
	}
	return &pebbleStore{name: name, db: db}, nil
}

func (s *pebbleStore) Name() string {
	return s.name
}

func recordKey(key string) []byte {
	return append(append([]byte(nil), recordPrefix...), key...)
}

// Put writes the record and moves the latest pointer in one batch.
func (s *pebbleStore) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return kstate.ErrEmptyKey
	}
	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Set(recordKey(key), value, nil); err != nil {
		return err
	}
	if err := b.Set(latestKey, []byte(key), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *pebbleStore) get(k []byte) ([]byte, error) {
	v, closer, err := s.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kstate.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	res := make([]byte, len(v))
	copy(res, v)
	return res, nil
}

func (s *pebbleStore) Get(_ context.Context, key string) ([]byte, error) {
	return s.get(recordKey(key))
}

func (s *pebbleStore) Latest(ctx context.Context) (string, []byte, error) {
	key, err := s.get(latestKey)
	if err != nil {
		return "", nil, err
	}
	v, err := s.Get(ctx, string(key))
	return string(key), v, err
}

func (s *pebbleStore) Keys(context.Context) ([]string, error) {
	upper := append([]byte(nil), recordPrefix...)
	upper[len(upper)-1]++

	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()[len(recordPrefix):]))
	}
	return keys, it.Error()
}

func (s *pebbleStore) Close() error {
	return multierr.Append(s.db.Flush(), s.db.Close())
}
