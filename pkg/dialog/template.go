package dialog

import (
	"context"

	"github.com/aretw0/corebot/pkg/domain"
)

// Step is a single unit of a dialog template.
type Step interface {
	Run(ctx context.Context, sc *StepContext) (domain.Action, error)
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context, sc *StepContext) (domain.Action, error)

// Run calls f(ctx, sc).
func (f StepFunc) Run(ctx context.Context, sc *StepContext) (domain.Action, error) {
	return f(ctx, sc)
}

// Template is an immutable, ordered list of steps.
type Template struct {
	id    string
	steps []Step
}

// NewTemplate creates a template. It panics if id is empty or no steps are given,
// both being programming errors detected at start-up.
func NewTemplate(id string, steps ...Step) *Template {
	if id == "" {
		panic("dialog: template id must not be empty")
	}
	if len(steps) == 0 {
		panic("dialog: template " + id + " has no steps")
	}
	return &Template{id: id, steps: append([]Step(nil), steps...)}
}

// ID returns the dialog id.
func (t *Template) ID() string { return t.id }

// Len returns the number of steps.
func (t *Template) Len() int { return len(t.steps) }

// Step returns the step at index i.
func (t *Template) Step(i int) (Step, bool) {
	if i < 0 || i >= len(t.steps) {
		return nil, false
	}
	return t.steps[i], true
}
