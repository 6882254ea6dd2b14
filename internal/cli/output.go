package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Mapping failure (type not found, rejected statement, empty record, etc.)
	ExitCommandError = 2 // Command error (bad config, schemas not loadable, invalid flags)
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error code or short summary
	Err     error  // Cause, may be nil
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

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as one JSON document.
//
// Results and errors go to Writer. Progress notes go to Log and only in
// verbose mode, so a JSON document on Writer is never interleaved with them.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Log     io.Writer // nil discards notes
	Verbose bool
}

// CLIResponse is the JSON document printed by every command in json format.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // set when Status is "error"
}

// CLIError describes a failed command.
type CLIError struct {
	Code    string            `json:"code"`              // "E001".."E007" or a mapping code such as "TYPE_NOT_FOUND"
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"` // type, field and sql of a mapping error
}

// Success prints data: encoded as the JSON payload, or with fmt in text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error prints a failure. In text mode details are listed, sorted by key,
// only when verbose.
func (f *OutputFormatter) Error(code, message string, details map[string]string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if !f.Verbose {
		return nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.Writer, "  %s: %s\n", k, details[k])
	}
	return nil
}

// Notef writes a progress note to Log in verbose mode.
func (f *OutputFormatter) Notef(format string, args ...any) {
	if !f.Verbose || f.Log == nil {
		return
	}
	fmt.Fprintf(f.Log, format+"\n", args...)
}

// newFormatter builds the formatter for cmd. Notes go to stderr.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Log:     cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	}
}

// reportError writes err in the configured format and returns it as an
// ExitError. Mapping errors are reported under their own code.
func reportError(f *OutputFormatter, exitCode int, err error) error {
	code := string(ir.CodeOf(err))
	if code == "" {
		code = ErrCodeGeneric
	}
	var details map[string]string
	var e *ir.Error
	if errors.As(err, &e) {
		details = errorDetails(e)
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(exitCode, code, err)
}

// errorDetails lists the non-empty context of a mapping error.
func errorDetails(e *ir.Error) map[string]string {
	d := map[string]string{}
	for k, v := range map[string]string{"type": e.TypeName, "field": e.Field, "sql": e.Statement} {
		if v != "" {
			d[k] = v
		}
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
