package runtime

import (
	"context"
	"time"

	"github.com/aretw0/corebot/pkg/domain"
)

func (e *Engine) emitStep(ctx context.Context, t *turn, frame *domain.Frame, kind domain.ActionKind) {
	if e.hooks.OnStep == nil {
		return
	}
	e.hooks.OnStep(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{
			Timestamp:      time.Now(),
			Type:           domain.EventStep,
			ConversationID: t.conversationID,
		},
		DialogID:  frame.DialogID,
		StepIndex: frame.StepIndex,
		Action:    kind,
	})
}

func (e *Engine) emitDialog(ctx context.Context, t *turn, hook func(context.Context, *domain.DialogEvent), typ domain.EventType, dialogID string, hasResult, replaced bool) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.DialogEvent{
		EventBase: domain.EventBase{
			Timestamp:      time.Now(),
			Type:           typ,
			ConversationID: t.conversationID,
		},
		DialogID:  dialogID,
		Depth:     t.stack.Len(),
		HasResult: hasResult,
		Replaced:  replaced,
	})
}
