package statestore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local tooling.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) key(userID, field string) string {
	return userID + "\x00" + field
}

func (s *MemoryStore) Get(_ context.Context, userID, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[s.key(userID, field)]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, userID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(userID, field)] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, s.key(userID, field))
	return nil
}
