// Package rptxerr provides the structured error type used across rptx.
//
// Every operation in the pipeline returns a *Error (or nil) rather than an
// ad-hoc fmt.Errorf, so the CLI layer can map any failure to one of the
// exit codes in the external interface without re-inspecting error text.
package rptxerr

import (
	"errors"
	"fmt"
)

// Code categorizes an error and maps 1-1 to a process exit code.
type Code string

const (
	CodeInvalidArguments   Code = "INVALID_ARGUMENTS"
	CodeFileNotFound       Code = "FILE_NOT_FOUND"
	CodeInvalidRpt         Code = "INVALID_RPT"
	CodeReadError          Code = "READ_ERROR"
	CodeWriteError         Code = "WRITE_ERROR"
	CodeInvalidSelection   Code = "INVALID_SELECTION"
	CodeNoPagesSelected    Code = "NO_PAGES_SELECTED"
	CodeDecompressionError Code = "DECOMPRESSION_ERROR"
	CodeMemoryError        Code = "MEMORY_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// ExitCodes maps each Code to the process exit status from spec.md §6.
var ExitCodes = map[Code]int{
	CodeInvalidArguments:   1,
	CodeFileNotFound:       2,
	CodeInvalidRpt:         3,
	CodeReadError:          4,
	CodeWriteError:         5,
	CodeInvalidSelection:   6,
	CodeNoPagesSelected:    7,
	CodeDecompressionError: 8,
	CodeMemoryError:        9,
	CodeUnknownError:       10,
}

// Error is a structured error carrying a Code, a human message, an
// optional underlying cause, and free-form diagnostic context.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithContext attaches a diagnostic key/value and returns the same error
// for chaining at the call site.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new *Error of the given code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new *Error of the given code wrapping cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// ExitCode returns the process exit status for err. nil maps to 0
// (success); an error with no *Error in its chain maps to 10, as
// CodeUnknownError.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		if code, ok := ExitCodes[e.Code]; ok {
			return code
		}
	}
	return ExitCodes[CodeUnknownError]
}

// As is a thin convenience wrapper around errors.As for the common case
// of recovering the *Error from an error chain.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
