package process

import (
	"context"

	"github.com/cjw296/carthorse/internal/output"
)

// MockRunner is a [Runner] for tests. It records every command and returns
// canned results keyed by the exact command line.
type MockRunner struct {
	// Commands records every command in call order.
	Commands []string

	// Outputs maps a command to the standard output it returns.
	Outputs map[string]string

	// ExitCodes maps a command to a non-zero exit status, producing a
	// *CommandError.
	ExitCodes map[string]int

	// Errors maps a command to an error returned as is.
	Errors map[string]error

	// Printer, if set, receives "$ <command>" announcements from Run.
	Printer *output.Printer
}

// Run implements [Runner].
func (m *MockRunner) Run(ctx context.Context, command string) (string, error) {
	if m.Printer != nil {
		m.Printer.Command(command)
	}
	return m.Output(ctx, command)
}

// Output implements [Runner].
func (m *MockRunner) Output(_ context.Context, command string) (string, error) {
	m.Commands = append(m.Commands, command)
	if err, ok := m.Errors[command]; ok {
		return "", err
	}
	out := m.Outputs[command]
	if code := m.ExitCodes[command]; code != 0 {
		return out, &CommandError{Command: command, ExitCode: code, Output: out}
	}
	return out, nil
}
