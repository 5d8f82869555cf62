package ports

import (
	"context"

	"github.com/aretw0/corebot/pkg/domain"
)

// StackStore persists the dialog stack of a conversation between turns.
type StackStore interface {
	// Save persists the stack for a given conversation ID.
	Save(ctx context.Context, conversationID string, stack *domain.Stack) error

	// Load retrieves the stack for a given conversation ID.
	// Returns domain.ErrSessionNotFound if the conversation has no stack.
	Load(ctx context.Context, conversationID string) (*domain.Stack, error)

	// Delete removes the stack for a given conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of all persisted conversations.
	List(ctx context.Context) ([]string, error)
}
