package domain

import "strings"

// ActivityType distinguishes user messages from membership updates.
type ActivityType string

const (
	ActivityMessage            ActivityType = "message"
	ActivityConversationUpdate ActivityType = "conversationUpdate"
)

// ChannelAccount identifies a participant.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies a conversation.
type ConversationAccount struct {
	ID string `json:"id"`
}

// Activity is the inbound input of one turn.
type Activity struct {
	Type         ActivityType        `json:"type"`
	ID           string              `json:"id,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	Text         string              `json:"text,omitempty"`
	Value        any                 `json:"value,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	Conversation ConversationAccount `json:"conversation"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
}

// TrimmedText returns the message text without surrounding whitespace.
func (a Activity) TrimmedText() string {
	return strings.TrimSpace(a.Text)
}

// InputHint tells the channel whether the bot expects a reply.
type InputHint string

const (
	AcceptingInput InputHint = "acceptingInput"
	ExpectingInput InputHint = "expectingInput"
	IgnoringInput  InputHint = "ignoringInput"
)

// Directive is a machine-readable instruction for the channel (e.g. a call transfer).
type Directive struct {
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// Message is one outbound reply.
type Message struct {
	Text      string     `json:"text"`
	Speak     string     `json:"speak,omitempty"`
	InputHint InputHint  `json:"inputHint,omitempty"`
	Directive *Directive `json:"directive,omitempty"`
}

// NewMessage builds a message whose spoken form equals its text.
func NewMessage(text string, hint InputHint) Message {
	return Message{Text: text, Speak: text, InputHint: hint}
}

// TurnStatus reports how a turn finished.
type TurnStatus string

const (
	StatusAwaitingInput TurnStatus = "awaiting_input"
	StatusIdle          TurnStatus = "idle"
)

// Outcome is the result of processing one turn.
type Outcome struct {
	Status TurnStatus `json:"status"`
	// Messages lists every non-prompt message sent during the turn, in order.
	Messages []Message `json:"messages,omitempty"`
	// Prompt is set when Status is StatusAwaitingInput.
	Prompt *Message `json:"prompt,omitempty"`
}

// All returns the messages of the turn followed by the prompt, if any.
func (o Outcome) All() []Message {
	out := make([]Message, 0, len(o.Messages)+1)
	out = append(out, o.Messages...)
	if o.Prompt != nil {
		out = append(out, *o.Prompt)
	}
	return out
}

// Merge appends other's messages after o's and adopts its status and prompt.
func (o Outcome) Merge(other Outcome) Outcome {
	if o.Prompt != nil {
		o.Messages = append(o.Messages, *o.Prompt)
	}
	o.Messages = append(o.Messages, other.Messages...)
	o.Status = other.Status
	o.Prompt = other.Prompt
	return o
}
