package dialogs

import (
	"context"
	"slices"
	"strings"

	"github.com/aretw0/corebot/pkg/dialog"
	"github.com/aretw0/corebot/pkg/domain"
)

// ask prompts with the localized string key formatted with args.
func ask(sc *dialog.StepContext, key string, input domain.InputType, args ...any) (domain.Action, error) {
	text, err := sc.Localize(key, args...)
	if err != nil {
		return domain.Action{}, err
	}
	return domain.Prompt(domain.NewMessage(text, domain.ExpectingInput), input), nil
}

// matches reports whether answer is one of the words listed under key.
func matches(sc *dialog.StepContext, key, answer string) (bool, error) {
	words, err := sc.Words(key)
	if err != nil {
		return false, err
	}
	return slices.Contains(words, strings.ToLower(strings.TrimSpace(answer))), nil
}

// interrupt handles "cancel" and "help" replies inside child dialogs.
// handled is false when the reply is an ordinary answer.
func interrupt(sc *dialog.StepContext, reprompt func() (domain.Action, error)) (act domain.Action, handled bool, err error) {
	if !sc.Replying() || sc.Text() == "" {
		return domain.Action{}, false, nil
	}

	if ok, err := matches(sc, "CancelWords", sc.Text()); err != nil || ok {
		if err != nil {
			return domain.Action{}, true, err
		}
		text, err := sc.Localize("Cancelling")
		if err != nil {
			return domain.Action{}, true, err
		}
		sc.Send(domain.NewMessage(text, domain.IgnoringInput))
		return domain.End(nil), true, nil
	}

	if ok, err := matches(sc, "HelpWords", sc.Text()); err != nil || ok {
		if err != nil {
			return domain.Action{}, true, err
		}
		text, err := sc.Localize("HelpMessage")
		if err != nil {
			return domain.Action{}, true, err
		}
		sc.Send(domain.NewMessage(text, domain.ExpectingInput))
		act, err := reprompt()
		return act, true, err
	}

	return domain.Action{}, false, nil
}

// slot is a step that fills one state field, prompting only when it is missing.
type slot struct {
	key    string
	prompt string
	retry  string
	input  domain.InputType
	// normalize validates an answer. Values rejected on entry are dropped and asked again.
	normalize func(sc *dialog.StepContext, answer string) (string, bool, error)
}

func (s slot) run(ctx context.Context, sc *dialog.StepContext) (domain.Action, error) {
	reprompt := func() (domain.Action, error) { return ask(sc, s.prompt, s.input) }

	if sc.Replying() {
		if act, handled, err := interrupt(sc, reprompt); handled || err != nil {
			return act, err
		}
		answer := sc.Text()
		if answer != "" && s.normalize != nil {
			v, ok, err := s.normalize(sc, answer)
			if err != nil {
				return domain.Action{}, err
			}
			if !ok {
				return ask(sc, s.retry, s.input)
			}
			answer = v
		}
		if answer != "" {
			sc.State[s.key] = answer
		}
	} else if v := sc.String(s.key); v != "" && s.normalize != nil {
		n, ok, err := s.normalize(sc, v)
		if err != nil {
			return domain.Action{}, err
		}
		if ok {
			sc.State[s.key] = n
		} else {
			sc.Logger.DebugContext(ctx, "dropping invalid prefilled value", "key", s.key, "value", v)
			delete(sc.State, s.key)
		}
	}

	if sc.String(s.key) != "" {
		return domain.Continue(nil), nil
	}
	return reprompt()
}

// confirm asks a yes/no question and continues with the answer as a bool.
func confirm(question func(sc *dialog.StepContext) (domain.Action, error)) dialog.StepFunc {
	return func(ctx context.Context, sc *dialog.StepContext) (domain.Action, error) {
		if !sc.Replying() {
			return question(sc)
		}
		reprompt := func() (domain.Action, error) { return question(sc) }
		if act, handled, err := interrupt(sc, reprompt); handled || err != nil {
			return act, err
		}
		yes, err := matches(sc, "YesWords", sc.Text())
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Continue(yes), nil
	}
}
