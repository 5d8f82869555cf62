package dialogs_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/corebot/internal/runtime"
	"github.com/aretw0/corebot/pkg/dialogs"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/locale"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var fixedNow = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

type fakeRecognizer struct {
	configured bool
	result     *domain.IntentResult
	err        error
	texts      []string
}

func (f *fakeRecognizer) IsConfigured() bool { return f.configured }

func (f *fakeRecognizer) Classify(_ context.Context, text string) (*domain.IntentResult, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type harness struct {
	t      *testing.T
	engine *runtime.Engine
	loc    ports.Localizer
	stack  *domain.Stack
	begun  []string
}

func newHarness(t *testing.T, rec ports.Recognizer) *harness {
	t.Helper()
	h := &harness{t: t, loc: locale.MustDefault().Resolve("en-US"), stack: domain.NewStack()}
	reg, err := dialogs.NewRegistry(dialogs.Config{
		Recognizer: rec,
		Now:        func() time.Time { return fixedNow },
		NewID:      func() string { return "generated-id" },
	})
	require.NoError(t, err)
	h.engine = runtime.NewEngine(reg, dialogs.MainDialogID, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDialogBegin: func(_ context.Context, e *domain.DialogEvent) { h.begun = append(h.begun, e.DialogID) },
	}))
	return h
}

func (h *harness) send(act domain.Activity) domain.Outcome {
	h.t.Helper()
	act.Conversation.ID = "conv"
	next, out, err := h.engine.Resume(context.Background(), h.stack, act, h.loc)
	require.NoError(h.t, err)
	h.stack = next
	return out
}

func (h *harness) say(text string) domain.Outcome {
	h.t.Helper()
	return h.send(domain.Activity{Type: domain.ActivityMessage, Text: text})
}

func (h *harness) text(key string, args ...any) string {
	h.t.Helper()
	s, err := h.loc.Get(key)
	require.NoError(h.t, err)
	if len(args) > 0 {
		s = sprintf(s, args...)
	}
	return s
}

// assertAtRoot checks the loop invariant: one root frame at step 0, prompting the follow-up.
func (h *harness) assertAtRoot(out domain.Outcome) {
	h.t.Helper()
	require.Equal(h.t, []string{dialogs.MainDialogID}, h.stack.DialogIDs())
	assert.Equal(h.t, 0, h.stack.Top().StepIndex)
	assert.Equal(h.t, map[string]any{domain.KeyOptions: h.text("WhatElseCanIDo")}, h.stack.Top().State)
	require.NotNil(h.t, out.Prompt)
	assert.Equal(h.t, h.text("WhatElseCanIDo"), out.Prompt.Text)
}

func texts(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestMain_ConfiguredGreetsWithInit(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{configured: true})

	out := h.say("hello")
	assert.Empty(t, out.Messages)
	require.NotNil(t, out.Prompt)
	assert.Equal(t, h.text("Init"), out.Prompt.Text)
	assert.True(t, h.stack.Top().Prompted)
}

func TestMain_InitPayload(t *testing.T) {
	for _, configured := range []bool{false, true} {
		h := newHarness(t, &fakeRecognizer{configured: configured})

		out := h.send(domain.Activity{Type: domain.ActivityMessage, Text: "init trigger", Value: map[string]any{"Action": "init"}})

		assert.Contains(t, texts(out.Messages), h.text("HowCanIHelpYouToday"))
		assert.NotContains(t, h.begun, dialogs.BookingDialogID)
		h.assertAtRoot(out)
	}
}

func TestMain_InitPayloadAsJSONString(t *testing.T) {
	rec := &fakeRecognizer{configured: true}
	h := newHarness(t, rec)

	out := h.send(domain.Activity{Type: domain.ActivityMessage, Value: `{"Action":"init"}`})
	assert.Contains(t, texts(out.Messages), h.text("HowCanIHelpYouToday"))
	assert.Empty(t, rec.texts, "init must not reach the classifier")
}

func TestMain_MalformedPayloadFallsThrough(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: domain.IntentGetWeather}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.send(domain.Activity{Type: domain.ActivityMessage, Text: "weather?", Value: []any{1, 2}})
	assert.Equal(t, []string{"weather?"}, rec.texts)
	assert.Equal(t, h.text("WeatherNotImplemented"), out.Messages[0].Text)
	h.assertAtRoot(out)
}

func TestMain_UnconfiguredStartsBooking(t *testing.T) {
	rec := &fakeRecognizer{configured: false}
	h := newHarness(t, rec)

	out := h.say("I want a pizza")

	assert.Equal(t, []string{dialogs.NotConfiguredWarning}, texts(out.Messages))
	assert.Equal(t, []string{dialogs.MainDialogID, dialogs.BookingDialogID}, h.begun)
	assert.Equal(t, []string{dialogs.MainDialogID, dialogs.BookingDialogID}, h.stack.DialogIDs())
	assert.Empty(t, h.stack.Top().State, "no entity extraction attempted")
	assert.Empty(t, rec.texts)
	assert.Equal(t, h.text("BookingDestinationPrompt"), out.Prompt.Text)
}

func TestMain_ClassificationFailureFallsBack(t *testing.T) {
	rec := &fakeRecognizer{configured: true, err: domain.ErrClassificationUnavailable}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.say("book me a flight")
	assert.Equal(t, []string{dialogs.MainDialogID, dialogs.BookingDialogID}, h.stack.DialogIDs())
	assert.Empty(t, out.Messages, "no warning: classification stays enabled")

	// Only this turn degrades: the next cycle classifies again.
	rec.err = nil
	rec.result = &domain.IntentResult{TopIntent: domain.IntentGetWeather}
	h.say("cancel")
	out = h.say("weather")
	assert.Equal(t, []string{"book me a flight", "weather"}, rec.texts)
	assert.Equal(t, h.text("WeatherNotImplemented"), out.Messages[0].Text)
}

func TestMain_Transfer(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: domain.IntentTransfer}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.say("talk to a human")

	require.Len(t, out.Messages, 2)
	human := h.text("TransferredToQueue")
	assert.Equal(t, human, out.Messages[0].Text)
	assert.Nil(t, out.Messages[0].Directive)

	cmd := out.Messages[1]
	assert.Equal(t, dialogs.TransferCommand, cmd.Text)
	assert.Equal(t, human, cmd.Speak)
	require.NotNil(t, cmd.Directive)
	assert.Equal(t, "transfer", cmd.Directive.Action)
	assert.Equal(t, "generated-id", cmd.Directive.Value)
	h.assertAtRoot(out)
}

func TestMain_TransferKeepsClientCallID(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: domain.IntentTransfer}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.send(domain.Activity{Type: domain.ActivityMessage, Text: "agent", Value: map[string]any{"CallID": "call-42"}})
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "call-42", out.Messages[1].Directive.Value)
}

func TestMain_UnknownIntent(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: "Foo"}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.say("blah")
	require.Len(t, out.Messages, 1)
	assert.Contains(t, out.Messages[0].Text, "Foo")
	h.assertAtRoot(out)
}

func TestMain_BookFlightWithEntities(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{
		TopIntent: domain.IntentBookFlight,
		Entities: map[string]string{
			domain.EntityToCity:     "Paris",
			domain.EntityFromCity:   "Seattle",
			domain.EntityFlightDate: "XXXX-10-16",
		},
	}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.say("fly from Seattle to Paris on the 16th")
	require.Equal(t, []string{dialogs.MainDialogID, dialogs.BookingDialogID}, h.stack.DialogIDs())
	assert.Equal(t, map[string]any{
		"destination": "Paris",
		"origin":      "Seattle",
		"travel_date": "2026-10-16",
		"call_id":     "generated-id",
	}, h.stack.Top().State)
	assert.Equal(t, h.text("BookingConfirmPrompt", "Paris", "Seattle", "next Friday"), out.Prompt.Text)

	out = h.say("yes")
	assert.Equal(t, []string{h.text("BookingConfirmed", "Paris", "Seattle", "next Friday")}, texts(out.Messages))
	h.assertAtRoot(out)
}

func TestBooking_FullFlow(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{})

	out := h.send(domain.Activity{Type: domain.ActivityConversationUpdate})
	assert.Equal(t, h.text("BookingDestinationPrompt"), out.Prompt.Text)

	out = h.say("Paris")
	assert.Equal(t, h.text("BookingOriginPrompt"), out.Prompt.Text)

	out = h.say("Seattle")
	assert.Equal(t, h.text("BookingDatePrompt"), out.Prompt.Text)

	out = h.say("someday")
	assert.Equal(t, h.text("BookingDateRetry"), out.Prompt.Text)
	assert.Equal(t, 2, h.stack.Top().StepIndex)

	out = h.say("tomorrow")
	assert.Equal(t, h.text("BookingConfirmPrompt", "Paris", "Seattle", "tomorrow"), out.Prompt.Text)

	out = h.say("yes")
	assert.Equal(t, []string{h.text("BookingConfirmed", "Paris", "Seattle", "tomorrow")}, texts(out.Messages))
	h.assertAtRoot(out)
}

func TestBooking_Declined(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{})
	h.say("go")
	h.say("Paris")
	h.say("Seattle")
	h.say("2026-12-01")

	out := h.say("no")
	assert.Empty(t, out.Messages, "cancelled booking yields no confirmation")
	h.assertAtRoot(out)
}

func TestBooking_HelpAndCancel(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{})
	h.say("go")

	out := h.say("help")
	assert.Equal(t, []string{h.text("HelpMessage")}, texts(out.Messages))
	assert.Equal(t, h.text("BookingDestinationPrompt"), out.Prompt.Text)
	_, hasDestination := h.stack.Top().State["destination"]
	assert.False(t, hasDestination)

	out = h.say("cancel")
	assert.Equal(t, []string{h.text("Cancelling")}, texts(out.Messages))
	h.assertAtRoot(out)
}

func TestOrder_FullFlow(t *testing.T) {
	rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{
		TopIntent: domain.IntentOrderPizza,
		Entities:  map[string]string{domain.EntityPizzaName: "margherita", domain.EntityPizzaSize: "huge"},
	}}
	h := newHarness(t, rec)
	h.say("hi")

	out := h.send(domain.Activity{Type: domain.ActivityMessage, Text: "a huge margherita", Locale: "en-US", From: domain.ChannelAccount{ID: "user-1"}})
	require.Equal(t, []string{dialogs.MainDialogID, dialogs.OrderPizzaDialogID}, h.stack.DialogIDs())
	assert.Equal(t, h.text("OrderSizePrompt"), out.Prompt.Text, "invalid prefilled size is asked again")
	assert.Equal(t, "user-1", h.stack.Top().State["caller"])

	out = h.say("gigantic")
	assert.Equal(t, h.text("OrderSizeRetry"), out.Prompt.Text)

	out = h.say("Large")
	assert.Equal(t, h.text("OrderExtrasPrompt"), out.Prompt.Text)

	out = h.say("nothing")
	assert.Equal(t, h.text("OrderConfirmPrompt", "large", "margherita", "none"), out.Prompt.Text)

	out = h.say("sure")
	assert.Equal(t, []string{h.text("OrderPlaced", "large", "margherita")}, texts(out.Messages))
	h.assertAtRoot(out)
}

func TestLoopInvariant_AllIntents(t *testing.T) {
	intents := []string{domain.IntentGetWeather, domain.IntentTransfer, domain.IntentNone, "Foo"}
	for _, intent := range intents {
		t.Run(intent, func(t *testing.T) {
			rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: intent}}
			h := newHarness(t, rec)
			h.say("hi")
			for i := 0; i < 3; i++ {
				h.assertAtRoot(h.say("again"))
			}
		})
	}

	for _, intent := range []string{domain.IntentBookFlight, domain.IntentOrderPizza} {
		t.Run(intent+" cancelled", func(t *testing.T) {
			rec := &fakeRecognizer{configured: true, result: &domain.IntentResult{TopIntent: intent}}
			h := newHarness(t, rec)
			h.say("hi")
			h.say("start")
			h.assertAtRoot(h.say("quit"))
		})
	}
}

func TestLocalizedTurn(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{configured: true})
	h.loc = locale.MustDefault().Resolve("fr-FR")

	out := h.send(domain.Activity{Type: domain.ActivityMessage, Value: map[string]any{"Action": "init"}})
	assert.Contains(t, texts(out.Messages), "Comment puis-je vous aider aujourd'hui ?")
	assert.Equal(t, "Que puis-je faire d'autre pour vous ?", out.Prompt.Text)
}

func TestRegister_Duplicate(t *testing.T) {
	reg, err := dialogs.NewRegistry(dialogs.Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, dialogs.Register(reg, dialogs.Config{}), domain.ErrDuplicateDialog)
	assert.Equal(t, []string{dialogs.BookingDialogID, dialogs.MainDialogID, dialogs.OrderPizzaDialogID}, reg.IDs())
}
