package errors

import (
	"errors"
	"fmt"
)

// Pipeline failure taxonomy. Failures scoped to a single item or unit are
// absorbed by the stage that observes them; only these surface to callers.
var (
	ErrValidation       = errors.New("invalid request")
	ErrCollection       = errors.New("content collection failed")
	ErrThreadCollection = errors.New("comment collection failed")
	ErrAnalysis         = errors.New("analysis failed")
	ErrAggregation      = errors.New("aggregation invariant violated")
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsValidation returns true if the error is a request validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsCollection returns true if the error is a content collection error
func IsCollection(err error) bool {
	return errors.Is(err, ErrCollection)
}

// IsAnalysis returns true if the error is an analysis error
func IsAnalysis(err error) bool {
	return errors.Is(err, ErrAnalysis)
}

// IsAggregation returns true if the error is an aggregation invariant error
func IsAggregation(err error) bool {
	return errors.Is(err, ErrAggregation)
}
