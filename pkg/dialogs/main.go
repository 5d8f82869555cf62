package dialogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/aretw0/corebot/pkg/timex"
)

// NotConfiguredWarning is sent while no intent service is configured.
const NotConfiguredWarning = "NOTE: CLU is not configured. To enable all capabilities, add 'CluProjectName', " +
	"'CluDeploymentName', 'CluAPIKey' and 'CluAPIHostName' to the configuration file or environment."

// TransferCommand is the text of the machine-readable transfer message.
const TransferCommand = "action=transfer"

// mainDialog routes each request to a child dialog and loops forever.
type mainDialog struct {
	recognizer ports.Recognizer
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

func newMainDialog(cfg Config) *dialog.Template {
	d := &mainDialog{
		recognizer: cfg.Recognizer,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
	return dialog.NewTemplate(MainDialogID,
		dialog.StepFunc(d.intro),
		dialog.StepFunc(d.act),
		dialog.StepFunc(d.final),
	)
}

func (d *mainDialog) intro(ctx context.Context, sc *dialog.StepContext) (domain.Action, error) {
	if sc.Replying() {
		return domain.Continue(nil), nil
	}

	if sc.InputPending() {
		if !d.recognizer.IsConfigured() {
			sc.Send(domain.NewMessage(NotConfiguredWarning, domain.IgnoringInput))
			return domain.Continue(nil), nil
		}
		// A client action is an answer in itself, no need to ask first.
		if cv, err := parseClientValue(sc.Activity.Value); err == nil && cv.Action != "" {
			return domain.Continue(nil), nil
		}
	}

	text := sc.Options()
	if text == "" {
		var err error
		if text, err = sc.Localize("Init"); err != nil {
			return domain.Action{}, err
		}
	}
	return domain.Prompt(domain.NewMessage(text, domain.ExpectingInput), domain.InputText), nil
}

func (d *mainDialog) act(ctx context.Context, sc *dialog.StepContext) (domain.Action, error) {
	if sc.ChildReturned() {
		return domain.Continue(sc.Result()), nil
	}

	cv, err := parseClientValue(sc.Activity.Value)
	if err != nil {
		sc.Logger.WarnContext(ctx, "ignoring client payload", "error", err)
	}

	if cv.Action == domain.ClientActionInit {
		text, err := sc.Localize("HowCanIHelpYouToday")
		if err != nil {
			return domain.Action{}, err
		}
		sc.Send(domain.NewMessage(text, domain.ExpectingInput))
		return domain.Continue(nil), nil
	}

	if !d.recognizer.IsConfigured() {
		return domain.BeginChild(BookingDialogID, domain.BookingDetails{}), nil
	}

	result, err := d.recognizer.Classify(ctx, sc.Text())
	if err != nil {
		if errors.Is(err, domain.ErrClassificationUnavailable) {
			sc.Logger.WarnContext(ctx, "classification failed, falling back to booking", "error", err)
			return domain.BeginChild(BookingDialogID, domain.BookingDetails{}), nil
		}
		return domain.Action{}, err
	}

	callID := cv.CallID
	if callID == "" {
		callID = d.newID()
	}
	sc.Logger.DebugContext(ctx, "routing intent", "intent", result.TopIntent, "call_id", callID)

	switch result.TopIntent {
	case domain.IntentOrderPizza:
		return domain.BeginChild(OrderPizzaDialogID, domain.OrderDetails{
			CallID: callID,
			Caller: sc.Activity.From.ID,
			Name:   result.PizzaName(),
			Size:   result.PizzaSize(),
			Extras: result.PizzaExtras(),
			Locale: sc.Activity.Locale,
		}), nil

	case domain.IntentBookFlight:
		date := result.FlightDate()
		if resolved, err := timex.Parse(date, d.now()); err == nil {
			date = resolved
		}
		return domain.BeginChild(BookingDialogID, domain.BookingDetails{
			Destination: result.ToCity(),
			Origin:      result.FromCity(),
			TravelDate:  date,
			CallID:      callID,
		}), nil

	case domain.IntentGetWeather:
		text, err := sc.Localize("WeatherNotImplemented")
		if err != nil {
			return domain.Action{}, err
		}
		sc.Send(domain.NewMessage(text, domain.IgnoringInput))
		return domain.Continue(nil), nil

	case domain.IntentTransfer:
		text, err := sc.Localize("TransferredToQueue")
		if err != nil {
			return domain.Action{}, err
		}
		sc.Send(domain.NewMessage(text, domain.IgnoringInput))
		sc.Send(domain.Message{
			Text:      TransferCommand,
			Speak:     text,
			InputHint: domain.IgnoringInput,
			Directive: &domain.Directive{Action: "transfer", Value: callID},
		})
		return domain.Continue(nil), nil

	default:
		text, err := sc.Localize("DidNotUnderstand", result.TopIntent)
		if err != nil {
			return domain.Action{}, err
		}
		sc.Send(domain.NewMessage(text, domain.IgnoringInput))
		return domain.Continue(nil), nil
	}
}

func (d *mainDialog) final(ctx context.Context, sc *dialog.StepContext) (domain.Action, error) {
	if details, ok := bookingResult(sc.Value); ok {
		when := timex.ToNaturalLanguage(details.TravelDate, d.now())
		text, err := sc.Localize("BookingConfirmed", details.Destination, details.Origin, when)
		if err != nil {
			return domain.Action{}, err
		}
		sc.Send(domain.NewMessage(text, domain.IgnoringInput))
	}

	followUp, err := sc.Localize("WhatElseCanIDo")
	if err != nil {
		return domain.Action{}, err
	}
	return domain.Replace(MainDialogID, followUp), nil
}

func bookingResult(v any) (domain.BookingDetails, bool) {
	switch t := v.(type) {
	case domain.BookingDetails:
		return t, true
	case *domain.BookingDetails:
		if t != nil {
			return *t, true
		}
	}
	return domain.BookingDetails{}, false
}

// parseClientValue decodes the structured payload of an activity.
// A nil payload yields the zero value without error.
func parseClientValue(raw any) (domain.ClientValue, error) {
	var cv domain.ClientValue
	switch v := raw.(type) {
	case nil:
		return cv, nil
	case string:
		if err := json.Unmarshal([]byte(v), &cv); err != nil {
			return domain.ClientValue{}, fmt.Errorf("%w: %w", domain.ErrMalformedStructuredInput, err)
		}
		return cv, nil
	case json.RawMessage:
		return parseClientValue(string(v))
	}
	if err := domain.DecodeState(raw, &cv); err != nil {
		return domain.ClientValue{}, fmt.Errorf("%w: %w", domain.ErrMalformedStructuredInput, err)
	}
	return cv, nil
}
