package event

import (
	"context"
	"sync"

	"waypoint/policy"

	"github.com/fundwit/go-commons/types"
)

// MemoryStore keeps events in process, in append order. Filters are evaluated
// with the condition itself instead of a compiled predicate.
type MemoryStore struct {
	mu     sync.RWMutex
	events []WorkflowEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, e *WorkflowEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *MemoryStore) CurrentStatus(ctx context.Context, workflow string, entityID types.ID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if e := s.events[i]; e.Workflow == workflow && e.EntityID == entityID {
			return e.To, true, nil
		}
	}
	return "", false, nil
}

func (s *MemoryStore) List(ctx context.Context, workflow string, entityID types.ID, filter policy.Filter) ([]WorkflowEvent, error) {
	return s.collect(filter, func(e *WorkflowEvent) bool {
		return e.Workflow == workflow && e.EntityID == entityID
	}), nil
}

func (s *MemoryStore) ReadMany(ctx context.Context, ids []types.ID, filter policy.Filter) ([]WorkflowEvent, error) {
	wanted := map[types.ID]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	return s.collect(filter, func(e *WorkflowEvent) bool { return wanted[e.ID] }), nil
}

func (s *MemoryStore) ListUndispatched(ctx context.Context, workflow string, limit int) ([]WorkflowEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := []WorkflowEvent{}
	for _, e := range s.events {
		if len(events) >= limit {
			break
		}
		if !e.Dispatched && e.Workflow == workflow {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *MemoryStore) MarkDispatched(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Dispatched = true
		}
	}
	return nil
}

func (s *MemoryStore) collect(filter policy.Filter, match func(*WorkflowEvent) bool) []WorkflowEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := []WorkflowEvent{}
	for i := range s.events {
		e := s.events[i]
		if match(&e) && filter.Allows(&e) {
			events = append(events, e)
		}
	}
	return events
}
