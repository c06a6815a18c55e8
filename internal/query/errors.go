package query

import (
	"errors"
	"fmt"

	"github.com/roach88/relquery/internal/expr"
)

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedTranslation indicates a query shape has no SQL
	// equivalent.
	ErrCodeUnsupportedTranslation ErrorCode = "UNSUPPORTED_TRANSLATION"

	// ErrCodeInvalidTranslation indicates an internal invariant was violated
	// while translating, e.g. a comparison not typed as bool.
	ErrCodeInvalidTranslation ErrorCode = "INVALID_TRANSLATION"

	// ErrCodeMaterializationInconsistency indicates a non-SQL node survived
	// translation and reached shaper compilation.
	ErrCodeMaterializationInconsistency ErrorCode = "MATERIALIZATION_INCONSISTENCY"

	// ErrCodeExecutionFailure indicates the command or its reader could not
	// be created at runtime.
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
)

// QueryError is the error type of every failure the pipeline detects.
// None of them are retried.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expression is the rendered offending expression, if any.
	Expression string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Expression != "" {
		msg += fmt.Sprintf(" (expression=%s)", e.Expression)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// IsUnsupportedTranslation reports whether err is an unsupported translation.
func IsUnsupportedTranslation(err error) bool {
	return hasCode(err, ErrCodeUnsupportedTranslation)
}

// IsInvalidTranslation reports whether err is an invalid translation.
func IsInvalidTranslation(err error) bool {
	return hasCode(err, ErrCodeInvalidTranslation)
}

// IsMaterializationInconsistency reports whether err is a materialization
// inconsistency.
func IsMaterializationInconsistency(err error) bool {
	return hasCode(err, ErrCodeMaterializationInconsistency)
}

// IsExecutionFailure reports whether err is an execution failure.
func IsExecutionFailure(err error) bool {
	return hasCode(err, ErrCodeExecutionFailure)
}

func describe(n expr.Node) string {
	if n == nil {
		return ""
	}
	return expr.Format(n)
}

// NewUnsupportedTranslation reports that n cannot be translated to SQL.
func NewUnsupportedTranslation(n expr.Node, format string, args ...any) *QueryError {
	return &QueryError{
		Code:       ErrCodeUnsupportedTranslation,
		Message:    fmt.Sprintf(format, args...),
		Expression: describe(n),
	}
}

// NewInvalidTranslation reports a violated translation invariant at n.
func NewInvalidTranslation(n expr.Node, format string, args ...any) *QueryError {
	return &QueryError{
		Code:       ErrCodeInvalidTranslation,
		Message:    fmt.Sprintf(format, args...),
		Expression: describe(n),
	}
}

// NewMaterializationInconsistency reports a non-SQL node found after
// translation.
func NewMaterializationInconsistency(n expr.Node, format string, args ...any) *QueryError {
	return &QueryError{
		Code:       ErrCodeMaterializationInconsistency,
		Message:    fmt.Sprintf(format, args...),
		Expression: describe(n),
	}
}

// NewExecutionFailure wraps a runtime failure to create or run a command.
func NewExecutionFailure(err error, format string, args ...any) *QueryError {
	return &QueryError{
		Code:    ErrCodeExecutionFailure,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
