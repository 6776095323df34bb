package shared

import (
	"errors"
	"fmt"
)

// Error classes. Every error that leaves a service either wraps one of these
// or is treated as an infrastructure failure at the HTTP boundary.
var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates the request carries no usable principal.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the principal lacks the role or warehouse grant.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or concurrent-update clash.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition indicates the entity is in a state that forbids the operation.
	ErrPrecondition = errors.New("precondition failed")
)

// DomainError is a classified error carrying a stable code and a message that
// names the offending entity.
type DomainError struct {
	Class   error
	Code    string
	Message string
}

// NewError builds a DomainError sentinel.
func NewError(class error, code, message string) *DomainError {
	return &DomainError{Class: class, Code: code, Message: message}
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the error class so errors.Is(err, ErrNotFound) holds.
func (e *DomainError) Unwrap() error {
	return e.Class
}

// Is matches another DomainError by code, so a specific instance built with
// Withf still satisfies errors.Is against its sentinel.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// Withf returns a copy of the sentinel with a formatted message.
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{Class: e.Class, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds an ad-hoc validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorCode returns the stable code of a DomainError, or "" for anything else.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
