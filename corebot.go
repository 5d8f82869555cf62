package corebot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/corebot/internal/logging"
	"github.com/aretw0/corebot/internal/runtime"
	"github.com/aretw0/corebot/pkg/adapters/memory"
	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/dialogs"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/locale"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/aretw0/corebot/pkg/session"
)

// Bot is the high-level entry point of the library. It drives one turn of a
// conversation at a time: load the stack, resume it, save it.
type Bot struct {
	runtime    *runtime.Engine
	sessions   *session.Manager
	registry   *dialog.Registry
	localizers ports.LocalizerResolver
	recognizer ports.Recognizer
	sink       ports.MessageSink
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	store         ports.StackStore
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	maxIterations int
	welcome       bool
	now           func() time.Time
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithStore sets the stack store (default: in-memory).
func WithStore(store ports.StackStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithLocker serializes turns across processes sharing the store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(b *Bot) {
		b.locker = locker
		b.lockTTL = ttl
	}
}

// WithRecognizer sets the intent classifier (default: unconfigured).
func WithRecognizer(rec ports.Recognizer) Option {
	return func(b *Bot) {
		b.recognizer = rec
	}
}

// WithLocalizers sets the resource catalog (default: the embedded catalog).
func WithLocalizers(res ports.LocalizerResolver) Option {
	return func(b *Bot) {
		b.localizers = res
	}
}

// WithSink forwards the messages of every successful turn to sink.
func WithSink(sink ports.MessageSink) Option {
	return func(b *Bot) {
		b.sink = sink
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = hooks
	}
}

// WithRegistry replaces the built-in dialogs. The registry must hold dialogs.MainDialogID.
func WithRegistry(reg *dialog.Registry) Option {
	return func(b *Bot) {
		b.registry = reg
	}
}

// WithMaxIterations bounds the steps of a single turn.
func WithMaxIterations(n int) Option {
	return func(b *Bot) {
		b.maxIterations = n
	}
}

// WithWelcome sends WelcomeMessage to members added to a conversation
// before the router starts.
func WithWelcome(enabled bool) Option {
	return func(b *Bot) {
		b.welcome = enabled
	}
}

// WithClock sets the clock used for relative dates and turn durations.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.now = now
	}
}

// New builds a Bot. Without options it runs the built-in dialogs on an
// in-memory store with an unconfigured recognizer.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}
	if b.localizers == nil {
		catalog, err := locale.Default(locale.WithLogger(b.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load locale catalog: %w", err)
		}
		b.localizers = catalog
	}
	if b.registry == nil {
		reg, err := dialogs.NewRegistry(dialogs.Config{
			Recognizer: b.recognizer,
			Logger:     b.logger,
			Now:        b.now,
		})
		if err != nil {
			return nil, err
		}
		b.registry = reg
	}
	if _, err := b.registry.Lookup(dialogs.MainDialogID); err != nil {
		return nil, fmt.Errorf("root dialog: %w", err)
	}

	sessOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(b.locker), session.WithLockTTL(b.lockTTL))
	}
	b.sessions = session.NewManager(b.store, sessOpts...)

	b.runtime = runtime.NewEngine(b.registry, dialogs.MainDialogID,
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithLogger(b.logger),
		runtime.WithMaxIterations(b.maxIterations),
	)
	return b, nil
}

// OnTurn processes one message activity for its conversation.
// On error nothing is saved and the conversation resumes from its previous stack.
func (b *Bot) OnTurn(ctx context.Context, act domain.Activity) (*domain.Outcome, error) {
	if act.Type == "" {
		act.Type = domain.ActivityMessage
	}
	out, _, err := b.runTurn(ctx, act, false)
	return out, err
}

// runTurn resumes the conversation with act. With freshOnly set, a
// conversation that already has a stack is left untouched and ran is false.
func (b *Bot) runTurn(ctx context.Context, act domain.Activity, freshOnly bool) (out *domain.Outcome, ran bool, err error) {
	if act.Conversation.ID == "" {
		return nil, false, fmt.Errorf("%w: missing conversation id", domain.ErrInvalidActivity)
	}
	start := b.now()
	loc := b.localizers.Resolve(act.Locale)

	var (
		outcome domain.Outcome
		depth   int
	)
	err = b.sessions.Turn(ctx, act.Conversation.ID, func(ctx context.Context, stack *domain.Stack) (*domain.Stack, error) {
		if freshOnly && !stack.Empty() {
			return stack, nil
		}
		next, out, err := b.runtime.Resume(ctx, stack, act, loc)
		if err != nil {
			return nil, err
		}
		outcome, depth, ran = out, next.Len(), true
		return next, nil
	})
	if err == nil && !ran {
		return nil, false, nil
	}

	b.emitTurn(ctx, act.Conversation.ID, outcome, depth, b.now().Sub(start), err)
	if err != nil {
		b.logger.Error("turn failed", "conversation_id", act.Conversation.ID, "err", err)
		return nil, false, err
	}

	b.deliver(ctx, act.Conversation.ID, outcome.All())
	return &outcome, true, nil
}

// OnMembersAdded greets every added member other than the bot itself and
// starts the root dialog when the conversation has no stack yet. A join in a
// running conversation never answers its open prompt.
func (b *Bot) OnMembersAdded(ctx context.Context, act domain.Activity) (*domain.Outcome, error) {
	merged := &domain.Outcome{Status: domain.StatusIdle}
	for _, member := range act.MembersAdded {
		if member.ID == act.Recipient.ID {
			continue
		}

		if b.welcome {
			text, err := b.localizers.Resolve(act.Locale).Get("WelcomeMessage")
			if err != nil {
				return nil, err
			}
			welcome := domain.NewMessage(text, domain.IgnoringInput)
			merged.Messages = append(merged.Messages, welcome)
			b.deliver(ctx, act.Conversation.ID, []domain.Message{welcome})
		}

		turn := act
		turn.Type = domain.ActivityMessage
		turn.From = member
		turn.MembersAdded = nil
		out, ran, err := b.runTurn(ctx, turn, true)
		if err != nil {
			return nil, err
		}
		if ran {
			*merged = merged.Merge(*out)
		}
	}
	return merged, nil
}

// Handle dispatches act to OnMembersAdded or OnTurn by its type.
func (b *Bot) Handle(ctx context.Context, act domain.Activity) (*domain.Outcome, error) {
	if act.Type == domain.ActivityConversationUpdate {
		return b.OnMembersAdded(ctx, act)
	}
	return b.OnTurn(ctx, act)
}

// Stack returns the persisted stack of a conversation.
func (b *Bot) Stack(ctx context.Context, conversationID string) (*domain.Stack, error) {
	return b.sessions.Load(ctx, conversationID)
}

// Reset forgets a conversation. The next turn starts from the root dialog.
func (b *Bot) Reset(ctx context.Context, conversationID string) error {
	return b.sessions.Delete(ctx, conversationID)
}

// Conversations lists the stored conversations.
func (b *Bot) Conversations(ctx context.Context) ([]string, error) {
	return b.sessions.List(ctx)
}

// Dialogs lists the registered dialog ids.
func (b *Bot) Dialogs() []string {
	return b.registry.IDs()
}

// Localizers returns the catalog used to resolve turn locales.
func (b *Bot) Localizers() ports.LocalizerResolver {
	return b.localizers
}

func (b *Bot) deliver(ctx context.Context, conversationID string, msgs []domain.Message) {
	if b.sink == nil || len(msgs) == 0 {
		return
	}
	b.sink.Send(ctx, conversationID, msgs)
}

func (b *Bot) emitTurn(ctx context.Context, conversationID string, out domain.Outcome, depth int, d time.Duration, err error) {
	if b.hooks.OnTurnComplete == nil {
		return
	}
	b.hooks.OnTurnComplete(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{
			Timestamp:      b.now(),
			Type:           domain.EventTurnComplete,
			ConversationID: conversationID,
		},
		Status:   out.Status,
		Depth:    depth,
		Messages: len(out.All()),
		Duration: d,
		Err:      err,
	})
}
