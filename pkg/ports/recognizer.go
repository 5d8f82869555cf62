package ports

import (
	"context"

	"github.com/aretw0/corebot/pkg/domain"
)

// Recognizer classifies user utterances.
type Recognizer interface {
	// IsConfigured reports whether the intent service can be called at all.
	IsConfigured() bool

	// Classify returns the top intent and entities of text.
	// Service failures are wrapped in domain.ErrClassificationUnavailable.
	Classify(ctx context.Context, text string) (*domain.IntentResult, error)
}
