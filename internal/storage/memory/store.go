// Package memory provides an in-process badge.Store for tests and for
// single-process deployments that do not need the count to survive restarts.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu    sync.Mutex
	count int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = count
	return nil
}

func (s *Store) Load(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}
