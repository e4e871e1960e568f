package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error classification.
type Kind string

const (
	KindBadRequest    Kind = "bad_request"
	KindUnprocessable Kind = "unprocessable"
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindInternal      Kind = "internal"
)

// Error is a domain error. It is returned unchanged from the layer that detects it up to the transport.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels carrying only a kind, use with errors.Is.
var (
	ErrBadRequest    = &Error{Kind: KindBadRequest}
	ErrUnprocessable = &Error{Kind: KindUnprocessable}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(KindBadRequest, format, args...)
}

func Unprocessable(format string, args ...interface{}) *Error {
	return New(KindUnprocessable, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(KindUnauthorized, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func AlreadyExists(format string, args ...interface{}) *Error {
	return New(KindAlreadyExists, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal when there is none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Message returns the human message of a domain error, empty for anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return ""
}
