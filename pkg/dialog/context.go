package dialog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

// StepContext is what a step sees of the current turn and frame.
type StepContext struct {
	// Activity is the inbound input of the turn.
	Activity domain.Activity
	// Value is the value handed over by the previous step's Continue.
	Value any
	// State is the frame-local state. Steps may mutate it freely.
	State map[string]any
	// Localizer resolves strings for the culture of this turn.
	Localizer ports.Localizer
	Logger    *slog.Logger

	DialogID  string
	StepIndex int

	result        any
	childReturned bool
	replying      bool
	pending       bool
	emit          func(domain.Message)
}

// Resumption describes how a step is being invoked.
type Resumption struct {
	// Result is the result of the child dialog that just ended.
	Result any
	// ChildReturned is set when a child dialog ended; Result may still be nil (cancelled).
	ChildReturned bool
	// Replying is set when the step is answering its own prompt from the previous turn.
	Replying bool
	// Pending is set while the inbound activity has not been consumed.
	Pending bool
}

// NewStepContext builds the context of one step invocation. Messages sent by
// the step are handed to emit in order.
func NewStepContext(r Resumption, emit func(domain.Message)) *StepContext {
	return &StepContext{
		result:        r.Result,
		childReturned: r.ChildReturned,
		replying:      r.Replying,
		pending:       r.Pending,
		emit:          emit,
	}
}

// Send emits a non-prompt message.
func (sc *StepContext) Send(msg domain.Message) {
	if sc.emit != nil {
		sc.emit(msg)
	}
}

// Replying reports whether the activity is the reply to this step's prompt.
func (sc *StepContext) Replying() bool { return sc.replying }

// InputPending reports whether the activity is still waiting to be handled.
func (sc *StepContext) InputPending() bool { return sc.pending }

// ChildReturned reports whether a child dialog just ended.
func (sc *StepContext) ChildReturned() bool { return sc.childReturned }

// Result returns the ended child's result, nil when it was cancelled.
func (sc *StepContext) Result() any { return sc.result }

// Text returns the trimmed text of the activity.
func (sc *StepContext) Text() string { return sc.Activity.TrimmedText() }

// Options returns the scalar args the frame was started with.
func (sc *StepContext) Options() string {
	s, _ := sc.State[domain.KeyOptions].(string)
	return s
}

// String returns a state value as a string.
func (sc *StepContext) String(key string) string {
	s, _ := sc.State[key].(string)
	return s
}

// Localize returns the localized string for key, formatted with args when given.
func (sc *StepContext) Localize(key string, args ...any) (string, error) {
	if sc.Localizer == nil {
		return "", fmt.Errorf("%w: %s (no localizer)", domain.ErrMissingResourceKey, key)
	}
	s, err := sc.Localizer.Get(key)
	if err != nil {
		return "", err
	}
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	return s, nil
}

// Words returns the comma-separated word list stored under key, lowercased.
func (sc *StepContext) Words(key string) ([]string, error) {
	s, err := sc.Localize(key)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out, nil
}
