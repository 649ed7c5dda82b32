package events

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("event not found")

	// ErrForbidden covers both ownership violations and managers trying
	// to attend their own kind of event.
	ErrForbidden = errors.New("permission denied")

	ErrEventUnpublished  = errors.New("event is not published")
	ErrEventFull         = errors.New("event is at full capacity")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
)

// ValidationError reports a malformed or inconsistent input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
