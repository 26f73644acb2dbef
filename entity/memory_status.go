package entity

import (
	"context"
	"sync"

	"waypoint/bizerror"

	"github.com/fundwit/go-commons/types"
)

type MemoryStatusStore struct {
	mu       sync.Mutex
	statuses map[types.ID]string
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: map[types.ID]string{}}
}

// Put registers an entity with its status; "" registers it without one.
func (s *MemoryStatusStore) Put(id types.ID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
}

func (s *MemoryStatusStore) ReadCurrentState(ctx context.Context, id types.ID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, found := s.statuses[id]
	if !found {
		return "", bizerror.ErrNotFound
	}
	return status, nil
}

func (s *MemoryStatusStore) WriteState(ctx context.Context, id types.ID, expected, next string, at types.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(id, expected, next)
}

// Locked runs fn while holding the store lock, for callers that must write
// the status together with other state.
func (s *MemoryStatusStore) Locked(fn func(write func(id types.ID, expected, next string) error) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.writeLocked)
}

func (s *MemoryStatusStore) writeLocked(id types.ID, expected, next string) error {
	status, found := s.statuses[id]
	if !found {
		return bizerror.ErrNotFound
	}
	if status != expected {
		return bizerror.ErrConflict
	}
	s.statuses[id] = next
	return nil
}
