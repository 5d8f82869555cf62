package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/corebot/pkg/domain"
)

// Combine returns hooks that call each of the given hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnDialogBegin = chain(out.OnDialogBegin, h.OnDialogBegin)
		out.OnDialogEnd = chain(out.OnDialogEnd, h.OnDialogEnd)
		out.OnStep = chain(out.OnStep, h.OnStep)
		out.OnTurnComplete = chain(out.OnTurnComplete, h.OnTurnComplete)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks logs every lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDialogBegin: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog begin", "conversation_id", e.ConversationID, "dialog", e.DialogID, "depth", e.Depth)
		},
		OnDialogEnd: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog end", "conversation_id", e.ConversationID, "dialog", e.DialogID,
				"depth", e.Depth, "has_result", e.HasResult, "replaced", e.Replaced)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step", "conversation_id", e.ConversationID, "dialog", e.DialogID,
				"step", e.StepIndex, "action", e.Action)
		},
		OnTurnComplete: func(ctx context.Context, e *domain.TurnEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "turn failed", "conversation_id", e.ConversationID, "err", e.Err, "duration", e.Duration)
				return
			}
			logger.DebugContext(ctx, "turn complete", "conversation_id", e.ConversationID, "status", e.Status,
				"depth", e.Depth, "messages", e.Messages, "duration", e.Duration)
		},
	}
}
