package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can branch on kind without string
// matching. Stage code maps these to lifecycle outcomes; the HTTP layer maps
// them to status codes.
type Code string

const (
	// CodeParse marks malformed input files. A parse failure aborts the
	// current stage and writes nothing partial for it.
	CodeParse Code = "parse_error"
	// CodeValidation marks recoverable per-record problems. The stage
	// continues for unaffected records.
	CodeValidation Code = "validation_error"
	// CodeDataSource marks external store failures (unreachable, query
	// error, query timeout).
	CodeDataSource Code = "data_source_error"
	// CodeConsistency marks invariant violations in produced artifacts,
	// e.g. duplicate zone ids after resolution.
	CodeConsistency Code = "consistency_error"

	CodeNotFound Code = "not_found"
	CodeConflict Code = "conflict"
	CodeTimeout  Code = "timeout"
	CodeInternal Code = "internal"
)

// Error carries a code alongside the message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context message to an existing error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from the chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
