package household

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The HTTP layer maps kinds to status codes; it
// never inspects messages.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindInvalidOrExpiredCode
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidOrExpiredCode:
		return "invalid_or_expired_code"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the failure type returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, if any. It is never shown to clients
	// outside development mode.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err. Errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Authentication required"}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func invalidCode() *Error {
	return &Error{Kind: KindInvalidOrExpiredCode, Message: "Invalid or expired verification code"}
}

func conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
