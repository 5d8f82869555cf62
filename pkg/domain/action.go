package domain

// ActionKind tags the variant carried by an Action.
type ActionKind string

const (
	// ActionPrompt suspends the turn until the user replies.
	ActionPrompt ActionKind = "prompt"
	// ActionContinue advances to the next step of the same frame.
	ActionContinue ActionKind = "continue"
	// ActionBeginChild pushes a child dialog on top of the current frame.
	ActionBeginChild ActionKind = "begin_child"
	// ActionEnd pops the current frame, handing its result to the parent.
	ActionEnd ActionKind = "end"
	// ActionReplace pops the current frame and pushes a fresh one in its place.
	ActionReplace ActionKind = "replace"
)

// InputType defines the kind of input requested by a prompt.
type InputType string

const (
	InputText    InputType = "text"
	InputConfirm InputType = "confirm"
	InputChoice  InputType = "choice"
)

// Action is the outcome of a single step invocation.
// Only the fields relevant to Kind are set.
type Action struct {
	Kind ActionKind

	// Prompt
	Message *Message
	Input   InputType

	// Continue value or End result.
	Value any

	// BeginChild / Replace
	DialogID string
	Args     any
}

// Prompt suspends the turn on msg.
func Prompt(msg Message, input InputType) Action {
	return Action{Kind: ActionPrompt, Message: &msg, Input: input}
}

// Continue advances to the next step, handing it v.
func Continue(v any) Action {
	return Action{Kind: ActionContinue, Value: v}
}

// BeginChild starts dialogID on top of the current frame.
func BeginChild(dialogID string, args any) Action {
	return Action{Kind: ActionBeginChild, DialogID: dialogID, Args: args}
}

// End completes the current frame. A nil result means cancelled.
func End(result any) Action {
	return Action{Kind: ActionEnd, Value: result}
}

// Replace ends the current frame without a result and starts dialogID in its place.
func Replace(dialogID string, args any) Action {
	return Action{Kind: ActionReplace, DialogID: dialogID, Args: args}
}
