package process

import (
	"context"

	"github.com/cjw296/carthorse/internal/output"
)

// DryRunner announces commands without executing them. Every command
// "succeeds" with empty output.
type DryRunner struct {
	printer *output.Printer
}

// NewDryRunner creates a DryRunner announcing through printer.
func NewDryRunner(printer *output.Printer) *DryRunner {
	return &DryRunner{printer: printer}
}

// Run implements [Runner].
func (r *DryRunner) Run(_ context.Context, command string) (string, error) {
	r.printer.Command(command)
	return "", nil
}

// Output implements [Runner]. It announces the command like Run, since
// nothing would otherwise show that it was skipped.
func (r *DryRunner) Output(ctx context.Context, command string) (string, error) {
	return r.Run(ctx, command)
}
