package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors recognised by the HTTP boundary.
var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the principal lacks every acceptable permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed or rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DomainError carries a human readable message on top of one of the
// sentinel errors so errors.Is keeps working across layers.
type DomainError struct {
	kind error
	msg  string
}

func (e *DomainError) Error() string { return e.msg }

func (e *DomainError) Unwrap() error { return e.kind }

// NotFound builds a not-found error with a formatted message.
func NotFound(format string, args ...any) error {
	return &DomainError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict error with a formatted message.
func Conflict(format string, args ...any) error {
	return &DomainError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Forbidden builds a forbidden error with a formatted message.
func Forbidden(format string, args ...any) error {
	return &DomainError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

// Unauthorized builds an unauthorized error with a formatted message.
func Unauthorized(format string, args ...any) error {
	return &DomainError{kind: ErrUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a validation error with a formatted message.
func Invalid(format string, args ...any) error {
	return &DomainError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}
