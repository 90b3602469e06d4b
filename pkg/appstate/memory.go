package appstate

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *SafeMap[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Keys(s.m))
}

// MemoryStore keeps state for the lifetime of the process. writeMu orders Set,
// Delete and Update so an Update never loses a concurrent write.
type MemoryStore struct {
	data    *SafeMap[string, string]
	writeMu sync.Mutex
	watchers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: NewSafeMap[string, string]()}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.data.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.writeMu.Lock()
	s.data.Set(key, value)
	s.writeMu.Unlock()
	s.notify(key, value, false)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.writeMu.Lock()
	s.data.Delete(key)
	s.writeMu.Unlock()
	s.notify(key, "", true)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.writeMu.Lock()
	current, ok := s.data.Get(key)
	next, err := fn(current, ok)
	if err != nil {
		s.writeMu.Unlock()
		if errors.Is(err, ErrSkipUpdate) {
			return nil
		}
		return err
	}
	s.data.Set(key, next)
	s.writeMu.Unlock()
	s.notify(key, next, false)
	return nil
}

func (s *MemoryStore) Subscribe(key string, fn ChangeFunc) func() {
	return s.subscribe(key, fn)
}
