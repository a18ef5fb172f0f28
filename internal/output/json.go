// Package output renders command results for scripts: the --json envelope
// and process exit codes.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klytics/rosterfmt/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing file, bad profile, auth required
	ExitSystemError = 2 // network failure, IO error, API error
)

// UserError marks an error the user can fix by changing their input.
type UserError struct {
	Err error
}

func (e *UserError) Error() string { return e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }

// Usage wraps err as a UserError. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{Err: err}
}

// ExitCode maps err onto one of the exit codes above.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ExitUserError
	}
	return ExitSystemError
}

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return WriteJSON(os.Stdout, cmd, data)
}

// WriteJSON writes a success JSON result to w.
func WriteJSON(w io.Writer, cmd string, data interface{}) error {
	result := JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}
