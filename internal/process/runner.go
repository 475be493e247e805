// Package process runs shell commands on behalf of capabilities.
//
// Commands are interpreted by mvdan.cc/sh, so they have POSIX shell
// semantics on every platform and see the run environment, including $TAG.
// Which [Runner] a capability receives decides whether it has side effects:
// dry runs hand actions a [DryRunner], which announces commands without
// executing them.
//
// Key types:
//   - [Runner] is the interface capabilities depend on
//   - [ShellRunner] executes commands in-process with mvdan.cc/sh
//   - [DryRunner] announces commands only
//   - [MockRunner] records commands and returns canned results for tests
//   - [CommandError] reports a command that exited non-zero
package process

import (
	"context"
	"fmt"
	"strings"
)

// Runner executes shell commands.
//
// Run announces the command as "$ <command>", streams its output to the
// terminal and returns its captured standard output. Output runs the command
// silently and returns its standard output. Both return a *[CommandError]
// when the command exits non-zero.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
	Output(ctx context.Context, command string) (string, error)
}

// CommandError reports a command that exited with a non-zero status.
type CommandError struct {
	// Command is the command line as given.
	Command string

	// ExitCode is the command's exit status, never 0.
	ExitCode int

	// Output is the command's combined standard output and error.
	Output string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit status %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}
