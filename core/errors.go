package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// AppError is an application-level failure: the exchange succeeded but the server answered `success: false`.
type AppError struct {
	Message string
}

func NewAppError(msg string) error {
	return &AppError{Message: msg}
}

func (err AppError) Error() string {
	return err.Message
}

// TransportError is a network failure, an unexpected status code or a body that could not be decoded.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func NewTransportError(op, url string, code int, err error) error {
	return &TransportError{Op: op, URL: url, StatusCode: code, Err: err}
}

func (err TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", err.Op, err.URL, err.Message())
}

// Message is the user facing text of the failure.
func (err TransportError) Message() string {
	if err.Err == nil && err.StatusCode != 0 {
		return fmt.Sprintf("Server error: %d", err.StatusCode)
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return ""
}

func (err TransportError) Unwrap() error { return err.Err }

func IsTransport(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}

func IsApp(err error) bool {
	_, ok := errors.Cause(err).(*AppError)
	return ok
}

// ErrorMessage returns the user facing text carried by err, if any.
func ErrorMessage(err error) string {
	switch e := errors.Cause(err).(type) {
	case nil:
		return ""
	case *TransportError:
		return e.Message()
	case *AppError:
		return e.Message
	default:
		return e.Error()
	}
}
