// Package memory is a process-local KeyValueStore for tests and ephemeral sessions
package memory

import (
	"context"
	"sync"
)

// KVStore keeps values in a map guarded by a mutex
type KVStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewKVStore creates an empty in-memory store
func NewKVStore() *KVStore {
	return &KVStore{values: make(map[string]string)}
}

func (s *KVStore) ReadKey(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok, nil
}

func (s *KVStore) WriteKey(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *KVStore) DeleteKey(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

// Keys returns the number of stored keys
func (s *KVStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
