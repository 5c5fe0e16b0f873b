// Package errors defines the coded errors returned by cellcluster.
//
// Every failure a user can act on carries a [Code]: parameter and input
// problems, data that cannot support an analysis (an empty population, a
// layer with no cells) and missing runs or files. Callers branch on the code
// with [Is]; the CLI prints [UserMessage].
//
//	if errors.Is(err, errors.ErrCodeLayerData) {
//	    // suggest --ignore-layers
//	}
//
// A simulated bin of zero is not an error. Density correction records it
// as a NaN ratio entry.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error category.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInputFormat      Code = "INVALID_INPUT_FORMAT"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Data errors
	ErrCodeEmptyDataset Code = "EMPTY_DATASET"
	ErrCodeLayerData    Code = "LAYER_DATA"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeStorage  Code = "STORAGE_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error carrying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage formats err for display, without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}
