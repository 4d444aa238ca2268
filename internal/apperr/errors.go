// Package apperr defines the error kinds surfaced by the claims backend.
//
// Components return *Error values; the HTTP layer is the only place that
// translates a Kind into a status code.
package apperr

import "errors"

// Kind classifies an error for the API boundary.
type Kind string

const (
	// KindProvider is any failure of an underlying managed service.
	KindProvider Kind = "PROVIDER"
	// KindValidation is a missing or malformed request field.
	KindValidation Kind = "VALIDATION"
	// KindNotFound means no matching record exists.
	KindNotFound Kind = "NOT_FOUND"
	// KindAuth is a bad credential or an invalid token.
	KindAuth Kind = "AUTH"
	// KindConflict means the identity or record already exists.
	KindConflict Kind = "CONFLICT"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation returns a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound returns a KindNotFound error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Auth wraps cause as a KindAuth error.
func Auth(message string, cause error) *Error { return Wrap(KindAuth, message, cause) }

// Conflict wraps cause as a KindConflict error.
func Conflict(message string, cause error) *Error { return Wrap(KindConflict, message, cause) }

// Provider wraps a managed-service failure, keeping its message verbatim.
func Provider(cause error) *Error {
	if cause == nil {
		return nil
	}
	return Wrap(KindProvider, cause.Error(), cause)
}

// KindOf extracts the kind from any error. Unclassified errors are treated
// as provider failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProvider
}
