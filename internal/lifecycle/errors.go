package lifecycle

import "errors"

var (
	// ErrUnknownAlert is returned when an action references an alert id
	// the manager has never seen
	ErrUnknownAlert = errors.New("unknown alert")

	// ErrInvalidTransition is returned when an action is not legal from
	// the alert's current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownAction is returned when an action name is not one of
	// acknowledge, resolve, dismiss
	ErrUnknownAction = errors.New("unknown action")
)
