package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation has no persisted stack.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownDialog is returned when a dialog id is not registered.
var ErrUnknownDialog = errors.New("unknown dialog")

// ErrDuplicateDialog is returned when a dialog id is registered twice.
var ErrDuplicateDialog = errors.New("duplicate dialog")

// ErrStoreUnavailable wraps any failure of the backing stack store.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrMissingResourceKey is returned when a localized string key has no entry.
var ErrMissingResourceKey = errors.New("missing resource key")

// ErrMalformedStructuredInput is returned when a client payload cannot be decoded.
var ErrMalformedStructuredInput = errors.New("malformed structured input")

// ErrClassificationUnavailable is returned when the intent service fails.
var ErrClassificationUnavailable = errors.New("classification unavailable")

// ErrRunawayDialog is returned when a turn exceeds the executor's iteration limit.
var ErrRunawayDialog = errors.New("runaway dialog")

// ErrInvalidActivity is returned when an inbound activity lacks a conversation id.
var ErrInvalidActivity = errors.New("invalid activity")

// StepError reports a failure raised by a dialog step.
type StepError struct {
	DialogID  string
	StepIndex int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("dialog %s step %d: %v", e.DialogID, e.StepIndex, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
