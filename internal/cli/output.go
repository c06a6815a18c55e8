package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/relquery/internal/query"
)

// Process exit statuses returned by relq.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // translation or execution failed
	ExitCommandError = 2 // unusable input: model, query file, parameters or database
)

// ExitError carries the process exit status for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit status and context to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the status carried by err, or ExitFailure when err
// is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeModel       = "E002" // Model could not be loaded
	ErrCodeQueryFile   = "E003" // Query file could not be loaded or resolved
	ErrCodeParameters  = "E004" // Parameter values missing or invalid
	ErrCodeDatabase    = "E005" // Database could not be opened
	ErrCodeUnsupported = "E101" // Expression has no SQL translation
	ErrCodeInvalid     = "E102" // Translation produced an invalid query
	ErrCodeMaterialize = "E103" // Projection and shaper disagree
	ErrCodeExecution   = "E104" // Connection, command or read failure
)

// ErrorCode maps a query error to its CLI error code.
func ErrorCode(err error) string {
	switch {
	case query.IsUnsupportedTranslation(err):
		return ErrCodeUnsupported
	case query.IsInvalidTranslation(err):
		return ErrCodeInvalid
	case query.IsMaterializationInconsistency(err):
		return ErrCodeMaterialize
	case query.IsExecutionFailure(err):
		return ErrCodeExecution
	}
	return ErrCodeGeneric
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; Writer when nil
	Verbose   bool
}

// CLIResponse is the JSON envelope; Status is "ok" or "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failure in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var (
	sqlColor   = color.New(color.FgCyan)
	labelColor = color.New(color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success writes data as the result of the command.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a coded failure. Details are shown in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	errorColor.Fprintf(f.Writer, "Error [%s]:", code)
	fmt.Fprintf(f.Writer, " %s\n", message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// SQL prints a command text under a comment label.
func (f *OutputFormatter) SQL(label, text string) {
	labelColor.Fprintf(f.Writer, "-- %s\n", label)
	sqlColor.Fprintln(f.Writer, text)
}

// VerboseLog writes a diagnostic line to the error writer when verbose.
// JSON output on Writer is never interleaved with it as long as ErrWriter
// is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
