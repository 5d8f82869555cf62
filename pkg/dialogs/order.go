package dialogs

import (
	"context"
	"strings"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/domain"
)

// Order state keys, matching the tags of domain.OrderDetails.
const (
	keyPizzaName = "name"
	keyPizzaSize = "size"
	keyExtras    = "extras"
)

func newOrderPizzaDialog(Config) *dialog.Template {
	size := slot{
		key:    keyPizzaSize,
		prompt: "OrderSizePrompt",
		retry:  "OrderSizeRetry",
		input:  domain.InputChoice,
		normalize: func(sc *dialog.StepContext, answer string) (string, bool, error) {
			ok, err := matches(sc, "PizzaSizes", answer)
			return strings.ToLower(answer), ok, err
		},
	}
	extras := slot{
		key:    keyExtras,
		prompt: "OrderExtrasPrompt",
		input:  domain.InputText,
		normalize: func(sc *dialog.StepContext, answer string) (string, bool, error) {
			none, err := sc.Words("NoneWords")
			if err != nil {
				return "", false, err
			}
			for _, w := range none {
				if strings.EqualFold(answer, w) {
					return none[0], true, nil
				}
			}
			return answer, true, nil
		},
	}

	return dialog.NewTemplate(OrderPizzaDialogID,
		dialog.StepFunc(slot{key: keyPizzaName, prompt: "OrderNamePrompt", input: domain.InputText}.run),
		dialog.StepFunc(size.run),
		dialog.StepFunc(extras.run),
		confirm(func(sc *dialog.StepContext) (domain.Action, error) {
			return ask(sc, "OrderConfirmPrompt", domain.InputConfirm,
				sc.String(keyPizzaSize), sc.String(keyPizzaName), sc.String(keyExtras))
		}),
		dialog.StepFunc(finishOrder),
	)
}

func finishOrder(_ context.Context, sc *dialog.StepContext) (domain.Action, error) {
	if confirmed, _ := sc.Value.(bool); !confirmed {
		return domain.End(nil), nil
	}
	var details domain.OrderDetails
	if err := domain.DecodeState(sc.State, &details); err != nil {
		return domain.Action{}, err
	}
	text, err := sc.Localize("OrderPlaced", details.Size, details.Name)
	if err != nil {
		return domain.Action{}, err
	}
	sc.Send(domain.NewMessage(text, domain.IgnoringInput))
	return domain.End(details), nil
}
