// Package memory is an in-process key-value store. Contents are lost on exit.
package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/caltrack/internal/repository"
)

// Store keeps values in a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
