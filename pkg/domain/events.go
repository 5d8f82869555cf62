package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDialogBegin  EventType = "dialog_begin"
	EventDialogEnd    EventType = "dialog_end"
	EventStep         EventType = "step"
	EventTurnComplete EventType = "turn_complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// DialogEvent is emitted when a frame is pushed or popped.
type DialogEvent struct {
	EventBase
	DialogID string `json:"dialog_id"`
	Depth    int    `json:"depth"`
	// HasResult is false when a dialog ended without a result (cancelled) or was replaced.
	HasResult bool `json:"has_result,omitempty"`
	Replaced  bool `json:"replaced,omitempty"`
}

// StepEvent is emitted after each step invocation.
type StepEvent struct {
	EventBase
	DialogID  string     `json:"dialog_id"`
	StepIndex int        `json:"step_index"`
	Action    ActionKind `json:"action"`
}

// TurnEvent is emitted once per processed turn.
type TurnEvent struct {
	EventBase
	Status   TurnStatus    `json:"status"`
	Depth    int           `json:"depth"`
	Messages int           `json:"messages"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnDialogBegin  func(context.Context, *DialogEvent)
	OnDialogEnd    func(context.Context, *DialogEvent)
	OnStep         func(context.Context, *StepEvent)
	OnTurnComplete func(context.Context, *TurnEvent)
}
