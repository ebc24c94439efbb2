package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed auth operation.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindAuthentication ErrorKind = "authentication"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindUnavailable    ErrorKind = "unavailable"
)

const (
	MsgPasswordTooShort = "Your password must contain at least 8 characters"
	MsgPasswordTooLong  = "Your password must contain at most 72 bytes"
	MsgMissingFields    = "Username, email and password are required"
	MsgCredentials      = "Username and password do not match."
	MsgPleaseLogIn      = "please log in"
	MsgUnavailable      = "The service is not available"
)

// Error is the structured failure returned by AuthService and SecretService.
// Message is stable and safe to show to clients; Err is for server logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
