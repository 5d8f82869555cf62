package dialogs

import (
	"context"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/timex"
)

// Booking state keys, matching the tags of domain.BookingDetails.
const (
	keyDestination = "destination"
	keyOrigin      = "origin"
	keyTravelDate  = "travel_date"
)

func newBookingDialog(cfg Config) *dialog.Template {
	now := cfg.Now
	date := slot{
		key:    keyTravelDate,
		prompt: "BookingDatePrompt",
		retry:  "BookingDateRetry",
		input:  domain.InputText,
		normalize: func(_ *dialog.StepContext, answer string) (string, bool, error) {
			t, err := timex.Parse(answer, now())
			return t, err == nil, nil
		},
	}

	return dialog.NewTemplate(BookingDialogID,
		dialog.StepFunc(slot{key: keyDestination, prompt: "BookingDestinationPrompt", input: domain.InputText}.run),
		dialog.StepFunc(slot{key: keyOrigin, prompt: "BookingOriginPrompt", input: domain.InputText}.run),
		dialog.StepFunc(date.run),
		confirm(func(sc *dialog.StepContext) (domain.Action, error) {
			when := timex.ToNaturalLanguage(sc.String(keyTravelDate), now())
			return ask(sc, "BookingConfirmPrompt", domain.InputConfirm,
				sc.String(keyDestination), sc.String(keyOrigin), when)
		}),
		dialog.StepFunc(finishBooking),
	)
}

func finishBooking(_ context.Context, sc *dialog.StepContext) (domain.Action, error) {
	if confirmed, _ := sc.Value.(bool); !confirmed {
		return domain.End(nil), nil
	}
	var details domain.BookingDetails
	if err := domain.DecodeState(sc.State, &details); err != nil {
		return domain.Action{}, err
	}
	return domain.End(details), nil
}

