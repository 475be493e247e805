package cli

import (
	"errors"
	"fmt"

	"github.com/cjw296/carthorse/internal/process"
)

// ExitError represents a command execution failure with a specific exit code.
//
// This error type allows Cobra RunE functions to signal non-zero exit codes
// without calling os.Exit() directly, enabling testable CLI behavior.
// [Execute] extracts the code with [IsExitError] and performs the actual
// os.Exit() call.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// Convention: 0 = success, 1 = general error, other values from a failed
	// command.
	Code int

	// Err is the failure being reported, if any.
	Err error
}

// Error returns the wrapped error's message, or "exit status N" when there
// is none. The latter matches the os/exec ExitError format.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// exitErrorFor maps a run failure to an [ExitError]. A failed command's exit
// status is passed through; every other failure exits 1.
func exitErrorFor(err error) *ExitError {
	var cmdErr *process.CommandError
	if errors.As(err, &cmdErr) {
		return NewExitError(cmdErr.ExitCode, err)
	}
	return NewExitError(1, err)
}

// IsExitError checks if an error is, or wraps, an [ExitError] and extracts
// its exit code.
//
// Returns (code, true) if err contains an *ExitError. Returns (0, false) for
// nil or other errors.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
