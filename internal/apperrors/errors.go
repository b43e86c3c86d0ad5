// Package apperrors defines the error taxonomy shared across the service.
// Errors are classified by Kind so the transport layer can map them to
// status codes without inspecting message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindNotFound
	KindBadRequest
	KindUnauthorized
	KindDecryption
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindDecryption:
		return "decryption_error"
	default:
		return "internal_error"
	}
}

// Error carries a kind, a message safe to return to clients, and an
// optional wrapped cause. The cause is never part of the client message.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of this error.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the client-safe message.
func (e *Error) Message() string { return e.msg }

func newError(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func Conflict(msg string) error     { return newError(KindConflict, msg) }
func NotFound(msg string) error     { return newError(KindNotFound, msg) }
func BadRequest(msg string) error   { return newError(KindBadRequest, msg) }
func Unauthorized(msg string) error { return newError(KindUnauthorized, msg) }
func Decryption(msg string) error   { return newError(KindDecryption, msg) }

// Internal wraps a backing-store or infrastructure failure. The cause is
// preserved for logging but clients only ever see a generic message.
func Internal(err error) error {
	return &Error{kind: KindInternal, msg: "internal error", err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal
// for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Message extracts the client-safe message from an error chain. Unclassified
// errors surface as a generic internal message, never raw error text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return "internal error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
