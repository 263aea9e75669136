package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/leapstack-labs/entconsole/internal/cli/config"
	"github.com/leapstack-labs/entconsole/internal/console"
	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitStartup      = 2
	ExitConnectivity = 3
	ExitInput        = 4
)

// ExitError carries the exit code a failure should terminate the process
// with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// StartupError is a failure before the interpreter starts: a missing
// profile, an unreadable manifest, or a session that could not be opened.
type StartupError struct {
	Op   string
	Err  error
	Hint string
}

func (e *StartupError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// startupError wraps err, attaching a hint for the failures users can fix.
func startupError(op string, err error) *StartupError {
	se := &StartupError{Op: op, Err: err}
	var ube *session.UnknownBackendError
	var pe *config.ProfileError
	switch {
	case errors.As(err, &ube):
		se.Hint = "Set profiles.<name>.driver to a registered driver"
	case errors.As(err, &pe):
		se.Op = ""
		se.Hint = pe.Hint
		se.Err = errors.New(pe.Message)
	}
	return se
}

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	var (
		ee    *ExitError
		se    *StartupError
		fatal *console.FatalError
		conn  *session.ConnectivityError
		input *console.InputError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.Code
	case errors.As(err, &fatal), errors.As(err, &conn):
		return ExitConnectivity
	case errors.As(err, &input), errors.Is(err, console.ErrIncompleteStatement):
		return ExitInput
	case errors.As(err, &se):
		return ExitStartup
	default:
		return ExitUsage
	}
}

// reportError prints a command error to w. Connectivity failures have
// already been reported by the interpreter.
func reportError(w io.Writer, err error) {
	var fatal *console.FatalError
	if errors.As(err, &fatal) {
		return
	}

	var se *StartupError
	if errors.As(err, &se) {
		pterm.Fprintln(w, pterm.Error.Sprint(se.Error()))
		if se.Hint != "" {
			pterm.Fprintln(w, pterm.Info.Sprint(se.Hint))
		}
		return
	}
	pterm.Fprintln(w, pterm.Error.Sprint(err.Error()))
}
