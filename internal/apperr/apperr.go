// Package apperr carries the HTTP-facing error taxonomy. Handlers return these
// and the error boundary turns them into a rendered error page.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	DefaultMessage = "Something went wrong!"
	PageNotFound   = "Page not found!"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindStore      Kind = "store"
	KindThrottled  Kind = "throttled"
)

type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: msg}
}

func AuthFailure(msg string) *Error {
	return &Error{Kind: KindAuth, StatusCode: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, StatusCode: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: msg}
}

func Throttled(msg string) *Error {
	return &Error{Kind: KindThrottled, StatusCode: http.StatusTooManyRequests, Message: msg}
}

// Store wraps a storage failure. The user only ever sees the default message.
func Store(err error) *Error {
	return &Error{Kind: KindStore, StatusCode: http.StatusInternalServerError, Message: DefaultMessage, Err: err}
}

// StatusAndMessage extracts what the error page shows. Anything that is not an
// *Error renders as a 500 with the default message.
func StatusAndMessage(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, DefaultMessage
	}
	code, msg := e.StatusCode, e.Message
	if code == 0 {
		code = http.StatusInternalServerError
	}
	if msg == "" {
		msg = DefaultMessage
	}
	return code, msg
}
