// Package errs provides coded errors for the analysis pipeline.
//
// Codes split the failures a run can hit into the ones that abort it
// (data unavailable, invalid configuration) and the ones that are reported
// as part of an otherwise successful result (insufficient history).
//
//	err := errs.Newf(errs.ErrCodeDataUnavailable, "no bars for %s", ticker)
//	if errs.HasCode(err, errs.ErrCodeDataUnavailable) { ... }
package errs

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfig ErrorCode = 100

	// Data errors (200-299)
	ErrCodeDataUnavailable     ErrorCode = 200
	ErrCodeInsufficientHistory ErrorCode = 201
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidConfig:
		return "InvalidConfig"
	case ErrCodeDataUnavailable:
		return "DataUnavailable"
	case ErrCodeInsufficientHistory:
		return "InsufficientHistory"
	default:
		return "Unknown"
	}
}

// Error is an error carrying an ErrorCode and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode extracts the code of the first *Error in err's chain.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}
