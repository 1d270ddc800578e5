// Package apperr defines the error kinds every component reports to its caller.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindRead       Kind = "read"
	KindWrite      Kind = "write"
	KindRejected   Kind = "rejected"
	KindInternal   Kind = "internal"
)

// Error is a tagged failure carrying a short human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Auth reports a missing session or bad credentials.
func Auth(msg string) error { return newErr(KindAuth, msg, nil) }

// NotFound reports a missing document or role.
func NotFound(msg string) error { return newErr(KindNotFound, msg, nil) }

// Validation reports blank or malformed user input caught before any remote call.
func Validation(msg string) error { return newErr(KindValidation, msg, nil) }

// Rejected reports a business-rule refusal such as a duplicate check-in.
func Rejected(msg string) error { return newErr(KindRejected, msg, nil) }

// Read wraps a failed backend read as "<prefix>: <cause>".
func Read(err error, prefix string) error { return newErr(KindRead, join(prefix, err), err) }

// Write wraps a failed backend write as "<prefix>: <cause>".
func Write(err error, prefix string) error { return newErr(KindWrite, join(prefix, err), err) }

func join(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	if prefix == "" {
		return err.Error()
	}
	return prefix + ": " + err.Error()
}

// KindOf returns the kind of err, KindInternal for untagged errors and "" for nil.
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

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// Message returns the user-facing message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// HTTPStatus maps an error kind to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindRejected:
		return http.StatusConflict
	case KindRead, KindWrite:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
