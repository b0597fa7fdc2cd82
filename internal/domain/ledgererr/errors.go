// Package ledgererr defines the typed failures the ledger reports to callers.
package ledgererr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable failure name carried in the response body.
type Kind string

const (
	MalformedEnvelope Kind = "MalformedEnvelope"
	MissingFields     Kind = "MissingFields"
	MissingTags       Kind = "MissingTags"
	MissingParameters Kind = "MissingParameters"
	MissingUserIDs    Kind = "MissingUserIds"
	DuplicateUser     Kind = "DuplicateUser"
	UserNotFound      Kind = "UserNotFound"
	LengthMismatch    Kind = "LengthMismatch"
	TimeFormatError   Kind = "TimeFormatError"
	TemplateNotFound  Kind = "TemplateNotFound"

	// Internal covers store and infrastructure failures.
	Internal Kind = "Internal"
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case MalformedEnvelope, MissingFields, MissingTags, MissingParameters, MissingUserIDs,
		DuplicateUser, LengthMismatch, TimeFormatError:
		return http.StatusBadRequest
	case UserNotFound, TemplateNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a ledger failure with a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Meta    map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// With attaches a metadata entry and returns e.
func (e *Error) With(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps err as the cause; the cause is logged but never sent to callers.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return KindOf(err).Status()
}
