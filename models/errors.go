package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the commission and tier engine. Controllers map these
// to HTTP status codes; repositories wrap storage failures in ErrPersistence.
var (
	ErrAgentNotFound          = errors.New("agent not found")
	ErrAccessDenied           = errors.New("access denied")
	ErrDemotionNotAllowed     = errors.New("demotion not allowed: tier changes must move up the ladder")
	ErrDuplicateApproval      = errors.New("an approval already exists for this transaction")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPersistence            = errors.New("persistence failure")
)

// ValidationError reports malformed numeric or enum input. It is always
// returned before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a specific field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
