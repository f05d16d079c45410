package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error the core surfaces. The UI only ever sees
// the user-facing message of one of these three kinds.
type ErrorKind string

const (
	// ErrorKindAuth: session missing, or the acting user does not own the
	// target resource. Raised before any store mutation is attempted.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindValidation: the request violates a domain invariant (name
	// length, day/exercise ceiling, duplicate exercise).
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindDatabase: catch-all for store and network failures not
	// already classified.
	ErrorKindDatabase ErrorKind = "database"
)

// Error is the single error type crossing the core's boundaries. Message is
// stable and user-facing; Internal carries the developer diagnostic with
// identifiers and counts.
type Error struct {
	Kind     ErrorKind
	Message  string // Shown to the user as-is
	Internal string // Logged, never shown
	Err      error  // Wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Internal != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthError builds an authorization failure.
func NewAuthError(message, internal string) *Error {
	return &Error{Kind: ErrorKindAuth, Message: message, Internal: internal}
}

// NewValidationError builds a domain invariant violation.
func NewValidationError(message, internal string) *Error {
	return &Error{Kind: ErrorKindValidation, Message: message, Internal: internal}
}

// NewDatabaseError wraps an unclassified store or network failure. The user
// message is expected to be reassuring ("Unable to save changes. Please try
// again."); the cause stays in Internal/Err for logs.
func NewDatabaseError(message, internal string, cause error) *Error {
	return &Error{Kind: ErrorKindDatabase, Message: message, Internal: internal, Err: cause}
}

// IsKind reports whether err is a core Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsClassified reports whether err already carries one of the three kinds.
// Classified errors pass through service boundaries unchanged; anything else
// gets wrapped exactly once as a Database error.
func IsClassified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// UserMessage extracts the user-facing string for err, falling back to a
// generic retry message for errors that escaped classification.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong. Please try again."
}
