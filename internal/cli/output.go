package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
)

// Exit codes for shopper commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the storefront rejected the request
	ExitCommandError = 2 // bad flags, unreachable state backend
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, ExitFailure by default.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope printed with --format=json.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Output renders command results as text or JSON.
type Output struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Success prints data. text is what the text format shows.
func (o *Output) Success(data any, text string) error {
	if o.Format == "json" {
		return json.NewEncoder(o.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(o.Writer, text)
	return err
}

// Failure prints err using the storefront error code when there is one.
func (o *Output) Failure(err error) {
	code := string(pkgerrors.CodeInternal)
	message := err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		code = string(typed.Code())
		message = typed.Message()
	}
	if o.Format == "json" {
		_ = json.NewEncoder(o.Writer).Encode(Response{Status: "error", Error: &ResponseError{Code: code, Message: message}})
		return
	}
	fmt.Fprintf(o.errWriter(), "Error [%s]: %s\n", code, message)
	if o.Verbose {
		fmt.Fprintf(o.errWriter(), "Details: %v\n", err)
	}
}

// Logf prints diagnostics only with --verbose.
func (o *Output) Logf(format string, args ...any) {
	if !o.Verbose {
		return
	}
	fmt.Fprintf(o.errWriter(), format+"\n", args...)
}

func (o *Output) errWriter() io.Writer {
	if o.ErrWriter != nil {
		return o.ErrWriter
	}
	return o.Writer
}
