package memory

import (
	"context"
	"sync"

	"github.com/aretw0/corebot/pkg/domain"
)

// Store implements ports.StackStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Stack
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Stack),
	}
}

// Save keeps a deep copy of the stack, so later mutations by the caller are not seen.
func (s *Store) Save(ctx context.Context, conversationID string, stack *domain.Stack) error {
	copied := stack.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load returns a deep copy of the stored stack.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.Stack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stack, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return stack.Clone(), nil
}

// Delete removes the stack.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the stored conversation ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
