package service

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindConflict       Kind = "conflict"
	KindDependency     Kind = "dependency"
)

// Error is the failure every flow returns. Reason is safe to show the
// client; Err carries the underlying cause for logs only.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and reason, so callers can compare
// against the exported sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

func Validation(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func NotFound(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func Authentication(reason string) *Error {
	return &Error{Kind: KindAuthentication, Reason: reason}
}

func Authorization(reason string) *Error {
	return &Error{Kind: KindAuthorization, Reason: reason}
}

func Conflict(reason string) *Error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func Dependency(reason string, err error) *Error {
	return &Error{Kind: KindDependency, Reason: reason, Err: err}
}

// KindOf returns the kind of err, treating anything unclassified as a
// dependency failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

var (
	ErrEmailRequired          = Validation("Email is required.")
	ErrEmailUnavailable       = Conflict("Email is not available.")
	ErrTermsRequired          = Validation("Terms and Conditions are required.")
	ErrDisplayNameRequired    = Validation("Display name is required.")
	ErrDisplayNameUnavailable = Conflict("Display name is not available.")
	ErrUserNotFound           = NotFound("User not found")
	ErrLockedOut              = Authentication("User is locked out.")
	ErrBadCredentials         = Authentication("Email or password is incorrect.")
	ErrCurrentPasswordMissing = Validation("Current Password is required.")
	ErrPasswordChangeFailed   = Validation("Unable to change password")
	ErrCodeRequired           = Validation("Code is required")
	ErrConfirmationFailed     = Validation("Unable to confirm email")
	ErrUserAgentRequired      = Validation("User agent info is required.")
	ErrUnauthorized           = Authorization("unauthorized")
)
