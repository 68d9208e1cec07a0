package pickup

import (
	"errors"
	"fmt"

	"waste-collection-api-server/internal/models"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound covers both a missing pickup and a lost conditional update.
	ErrNotFound  = errors.New("pickup not found")
	ErrForbidden = errors.New("operation not permitted for this actor")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransitionError carries the current and requested status. Op is set for
// operations that do not change the status themselves.
type TransitionError struct {
	From models.PickupStatus
	To   models.PickupStatus
	Op   string
}

func (e *TransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cannot %s while pickup is %s", e.Op, e.From)
	}
	return fmt.Sprintf("cannot move pickup from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func forbidden(actor Actor, op string) error {
	return fmt.Errorf("%w: %s cannot %s", ErrForbidden, actor.Role, op)
}
