package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of business error categories raised by the
// core services. The routing layer maps these to transport status codes;
// nothing in this module ever inspects an error's shape to classify it.
type ErrorKind string

const (
	// KindValidation marks malformed input or a violated business rule.
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound marks a referenced entity that is absent or not owned by the caller.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindConflict marks a duplicate or a state conflict.
	KindConflict ErrorKind = "CONFLICT"
	// KindInsufficientFunds is a specialization of KindValidation surfaced
	// distinctly for balance and quantity checks.
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
)

// Error is a tagged business error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found error for a named entity.
func NewNotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// NewConflictError creates a conflict error with a formatted message.
func NewConflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientFundsError creates an insufficient-funds error.
func NewInsufficientFundsError(message string) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: message}
}

// KindOf extracts the error kind from err, unwrapping as needed.
// Returns an empty kind for non-business errors (infrastructure failures).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
// Insufficient-funds errors count as validation failures.
func IsValidation(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindInsufficientFunds
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsInsufficientFunds reports whether err is an insufficient-funds error.
func IsInsufficientFunds(err error) bool {
	return KindOf(err) == KindInsufficientFunds
}
