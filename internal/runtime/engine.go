package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

// DefaultMaxIterations bounds the step invocations of one turn.
const DefaultMaxIterations = 256

// Engine runs dialog stacks. It is stateless: everything a turn needs is
// passed to Resume and everything it produces is returned.
type Engine struct {
	registry      *dialog.Registry
	rootID        string
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxIterations int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// NewEngine creates an engine that starts empty stacks with rootID.
func NewEngine(registry *dialog.Registry, rootID string, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:      registry,
		rootID:        rootID,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RootID returns the dialog pushed on empty stacks.
func (e *Engine) RootID() string { return e.rootID }

// turn carries the bookkeeping of a single Resume call.
type turn struct {
	stack          *domain.Stack
	outcome        domain.Outcome
	conversationID string

	value         any
	result        any
	childReturned bool
	pending       bool
}

// Resume advances stack with the activity of one turn.
//
// The input stack is never modified. On success the returned stack is the
// one to persist. On error the turn must be discarded as a whole.
func (e *Engine) Resume(ctx context.Context, stack *domain.Stack, act domain.Activity, loc ports.Localizer) (*domain.Stack, domain.Outcome, error) {
	t := &turn{
		stack:          stack.Clone(),
		conversationID: act.Conversation.ID,
		pending:        true,
	}

	if t.stack.Empty() {
		if err := e.begin(ctx, t, e.rootID, nil); err != nil {
			return nil, domain.Outcome{}, err
		}
	}

	for i := 0; ; i++ {
		if i >= e.maxIterations {
			return nil, domain.Outcome{}, fmt.Errorf("%w: more than %d steps in one turn (stack %v)",
				domain.ErrRunawayDialog, e.maxIterations, t.stack.DialogIDs())
		}
		if err := ctx.Err(); err != nil {
			return nil, domain.Outcome{}, err
		}

		done, err := e.step(ctx, t, act, loc)
		if err != nil {
			return nil, domain.Outcome{}, err
		}
		if done {
			return t.stack, t.outcome, nil
		}
	}
}

// step invokes the top frame once and applies the returned action.
// It reports true when the turn is over.
func (e *Engine) step(ctx context.Context, t *turn, act domain.Activity, loc ports.Localizer) (bool, error) {
	frame := t.stack.Top()
	tmpl, err := e.registry.Lookup(frame.DialogID)
	if err != nil {
		return false, err
	}
	step, ok := tmpl.Step(frame.StepIndex)
	if !ok {
		return false, fmt.Errorf("dialog %s: step index %d out of range [0,%d)", frame.DialogID, frame.StepIndex, tmpl.Len())
	}

	replying := frame.Prompted
	frame.Prompted = false

	sc := dialog.NewStepContext(dialog.Resumption{
		Result:        t.result,
		ChildReturned: t.childReturned,
		Replying:      replying,
		Pending:       t.pending,
	}, func(m domain.Message) {
		t.outcome.Messages = append(t.outcome.Messages, m)
	})
	sc.Activity = act
	sc.Value = t.value
	sc.State = frame.State
	sc.Localizer = loc
	sc.Logger = e.logger.With("dialog", frame.DialogID, "step", frame.StepIndex)
	sc.DialogID = frame.DialogID
	sc.StepIndex = frame.StepIndex

	action, err := step.Run(ctx, sc)
	if err != nil {
		return false, &domain.StepError{DialogID: frame.DialogID, StepIndex: frame.StepIndex, Err: err}
	}

	// The reply has been handed to a prompting step, which consumed it.
	if replying {
		t.pending = false
	}
	t.value, t.result, t.childReturned = nil, nil, false
	e.emitStep(ctx, t, frame, action.Kind)

	switch action.Kind {
	case domain.ActionPrompt:
		if action.Message == nil {
			return false, &domain.StepError{DialogID: frame.DialogID, StepIndex: frame.StepIndex, Err: fmt.Errorf("prompt without message")}
		}
		frame.Prompted = true
		msg := *action.Message
		t.outcome.Prompt = &msg
		t.outcome.Status = domain.StatusAwaitingInput
		return true, nil

	case domain.ActionContinue:
		frame.StepIndex++
		if frame.StepIndex >= tmpl.Len() {
			return e.end(ctx, t, action.Value, false), nil
		}
		t.value = action.Value
		return false, nil

	case domain.ActionBeginChild:
		return false, e.begin(ctx, t, action.DialogID, action.Args)

	case domain.ActionEnd:
		return e.end(ctx, t, action.Value, false), nil

	case domain.ActionReplace:
		if _, err := e.registry.Lookup(action.DialogID); err != nil {
			return false, err
		}
		if e.end(ctx, t, nil, true) {
			t.outcome.Status = ""
		}
		// A replaced dialog starts a new cycle: no pending result, no pending input.
		t.result, t.childReturned = nil, false
		t.pending = false
		return false, e.begin(ctx, t, action.DialogID, action.Args)

	default:
		return false, &domain.StepError{DialogID: frame.DialogID, StepIndex: frame.StepIndex, Err: fmt.Errorf("unknown action kind %q", action.Kind)}
	}
}

// begin pushes a new frame for dialogID with a state built from args.
func (e *Engine) begin(ctx context.Context, t *turn, dialogID string, args any) error {
	if _, err := e.registry.Lookup(dialogID); err != nil {
		return err
	}
	state, err := domain.StateFromArgs(args)
	if err != nil {
		return err
	}
	t.stack.Push(domain.Frame{DialogID: dialogID, State: state})
	e.logger.Debug("dialog begin", "dialog", dialogID, "depth", t.stack.Len())
	e.emitDialog(ctx, t, e.hooks.OnDialogBegin, domain.EventDialogBegin, dialogID, false, false)
	return nil
}

// end pops the top frame. It reports true when the stack became empty.
// Otherwise result is delivered to the parent's current step.
func (e *Engine) end(ctx context.Context, t *turn, result any, replaced bool) bool {
	frame, _ := t.stack.Pop()
	e.logger.Debug("dialog end", "dialog", frame.DialogID, "depth", t.stack.Len(), "has_result", result != nil, "replaced", replaced)
	e.emitDialog(ctx, t, e.hooks.OnDialogEnd, domain.EventDialogEnd, frame.DialogID, result != nil, replaced)

	if t.stack.Empty() {
		t.outcome.Status = domain.StatusIdle
		return true
	}
	t.result, t.childReturned = result, true
	return false
}
