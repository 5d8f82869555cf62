package ports

import (
	"context"

	"github.com/aretw0/corebot/pkg/domain"
)

// MessageSink receives the outbound messages of a turn.
// Delivery is fire and forget: implementations must not block the turn.
type MessageSink interface {
	Send(ctx context.Context, conversationID string, messages []domain.Message)
}
