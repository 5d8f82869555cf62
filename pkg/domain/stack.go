package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// KeyOptions is the state key under which scalar dialog args are stored.
const KeyOptions = "options"

// Frame is one invocation of a dialog template.
type Frame struct {
	DialogID  string `json:"dialog_id"`
	StepIndex int    `json:"step_index"`
	// State is local to the frame and holds only JSON-native values.
	State map[string]any `json:"state"`
	// Prompted is set when the step at StepIndex suspended on a prompt.
	// That step is re-invoked with the user's reply on the next turn.
	Prompted bool `json:"prompted,omitempty"`
}

// Stack is the ordered list of frames of a conversation. The last frame is active.
type Stack struct {
	Frames []Frame `json:"frames"`
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{Frames: []Frame{}}
}

// Len returns the number of frames.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Empty reports whether the stack has no frames.
func (s *Stack) Empty() bool {
	return s.Len() == 0
}

// Top returns the active frame, or nil when the stack is empty.
// The pointer stays valid until the next Push or Pop.
func (s *Stack) Top() *Frame {
	if s.Empty() {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Push makes f the active frame.
func (s *Stack) Push(f Frame) {
	if f.State == nil {
		f.State = map[string]any{}
	}
	s.Frames = append(s.Frames, f)
}

// Pop removes and returns the active frame.
func (s *Stack) Pop() (Frame, bool) {
	if s.Empty() {
		return Frame{}, false
	}
	f := s.Frames[len(s.Frames)-1]
	s.Frames = s.Frames[:len(s.Frames)-1]
	return f, true
}

// DialogIDs lists the dialog of each frame, bottom first.
func (s *Stack) DialogIDs() []string {
	ids := make([]string, 0, s.Len())
	if s == nil {
		return ids
	}
	for _, f := range s.Frames {
		ids = append(ids, f.DialogID)
	}
	return ids
}

// Clone returns a deep copy of the stack.
func (s *Stack) Clone() *Stack {
	out := NewStack()
	if s == nil {
		return out
	}
	for _, f := range s.Frames {
		f.State = cloneMap(f.State)
		out.Frames = append(out.Frames, f)
	}
	return out
}

// StateFromArgs converts dialog args into a fresh frame state.
//
//   - nil yields an empty state.
//   - maps are copied.
//   - scalars are stored under KeyOptions.
//   - structs are decoded field by field using their mapstructure tags.
func StateFromArgs(args any) (map[string]any, error) {
	switch v := args.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return cloneMap(v), nil
	case string, bool, int, int64, float64, json.Number:
		return map[string]any{KeyOptions: v}, nil
	}

	out := map[string]any{}
	if err := mapstructure.Decode(args, &out); err != nil {
		return nil, fmt.Errorf("convert dialog args %T: %w", args, err)
	}
	return out, nil
}

// DecodeState decodes a frame state (or any loose map) into out.
// Field names match case-insensitively and scalar types are weakly converted.
func DecodeState(state any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(state)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
