package apperror

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an application error so callers can map it
// to a transport-level response without string matching.
type Kind string

const (
	// Validation kinds raised by value-object/entity construction.
	KindInvalidEmail    Kind = "invalid_email"
	KindWeakPassword    Kind = "weak_password"
	KindEmptyPassword   Kind = "empty_password"
	KindEmptyName       Kind = "empty_name"
	KindEmptyCredential Kind = "empty_credential"

	KindEmailTaken         Kind = "email_taken"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUserNotFound       Kind = "user_not_found"
	KindStorage            Kind = "storage"
)

// Error is the single error type flowing out of the domain and application
// layers. The Kind determines how the presentation layer reports it.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two application errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func Validation(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindEmailTaken, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindInvalidCredentials, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindUserNotFound, Msg: msg}
}

func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf returns the Kind carried by err, or KindStorage when err is not an
// application error. A nil err yields the empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsValidation reports whether err is a client-input validation failure.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindInvalidEmail, KindWeakPassword, KindEmptyPassword, KindEmptyName, KindEmptyCredential:
		return true
	}
	return false
}
