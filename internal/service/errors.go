package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies activation failures for the transport layer
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindDeviceConflict ErrorKind = "device_conflict"
	KindUnavailable    ErrorKind = "unavailable"
)

// Error is the error type returned by ActivationService. Message is safe to
// show to end users; Err carries the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, service.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "Invalid request"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "No activation code found for this number."}
	ErrDeviceConflict = &Error{Kind: KindDeviceConflict, Message: "This number is already activated on another device."}
	ErrUnavailable    = &Error{Kind: KindUnavailable, Message: "Activation service unavailable"}
)

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func unavailableError(err error) error {
	return &Error{Kind: KindUnavailable, Message: ErrUnavailable.Message, Err: err}
}

// KindOf returns the kind of err, or KindUnavailable for foreign errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// MessageOf returns the user-facing message carried by err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrUnavailable.Message
}
