package domain

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the alert and resolution workflow.
var (
	// Event store errors
	ErrEventNotFound = errors.New("event not found")
	ErrUnknownField  = errors.New("unknown event field")

	// Session errors
	ErrNoOpenSession    = errors.New("no open resolution session")
	ErrSubmitInProgress = errors.New("resolution submit already in progress")
	ErrAlertNotFound    = errors.New("alert is not active")

	// ErrValidation is the parent of all missing or invalid session input errors.
	ErrValidation         = errors.New("validation failed")
	ErrAssigneeRequired   = fmt.Errorf("%w: assignee is required", ErrValidation)
	ErrUnknownAssignee    = fmt.Errorf("%w: assignee is not in the staff directory", ErrValidation)
	ErrActionNotAllowed   = fmt.Errorf("%w: action not offered for this alert", ErrValidation)
	ErrNoResolutionAction = fmt.Errorf("%w: alert has no resolution action", ErrValidation)
	ErrInvalidAction      = fmt.Errorf("%w: invalid action", ErrValidation)

	// ErrPersistence wraps a failed event store write or staff directory read.
	ErrPersistence = errors.New("store unavailable")

	// ErrStaleReference means the session's event no longer exists in the store.
	ErrStaleReference = errors.New("event no longer exists")

	// Operator errors
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorInactive = errors.New("operator is inactive")
	ErrStaffNotFound    = errors.New("staff member not found")
)
