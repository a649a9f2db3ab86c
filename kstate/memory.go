package kstate

import (
	"context"
	"sort"
	"sync"
)

type inMemoryStore struct {
	name string

	mu     sync.RWMutex
	data   map[string][]byte
	latest string
}

// NewInMemoryStore returns a Store that lives as long as the process.
func NewInMemoryStore(name string) Store {
	return &inMemoryStore{name: name, data: make(map[string][]byte)}
}

func (s *inMemoryStore) Name() string {
	return s.name
}

func (s *inMemoryStore) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	s.latest = key
	return nil
}

func (s *inMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *inMemoryStore) Latest(ctx context.Context) (string, []byte, error) {
	s.mu.RLock()
	key := s.latest
	s.mu.RUnlock()
	if key == "" {
		return "", nil, ErrKeyNotFound
	}
	v, err := s.Get(ctx, key)
	return key, v, err
}

func (s *inMemoryStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *inMemoryStore) Close() error {
	return nil
}
