package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/cjw296/carthorse/internal/output"
	"github.com/cjw296/carthorse/internal/runenv"
)

// ShellRunner executes commands with the mvdan.cc/sh interpreter.
//
// The environment is read from a [runenv.Env] on every call, so variables
// published during a run (such as TAG) are visible to later commands.
type ShellRunner struct {
	env     runenv.Env
	printer *output.Printer
	dir     string
	logger  *log.Logger
}

// ShellOption configures a [ShellRunner].
type ShellOption func(*ShellRunner)

// WithDir sets the working directory commands run in. The default is the
// process working directory.
func WithDir(dir string) ShellOption {
	return func(r *ShellRunner) { r.dir = dir }
}

// WithLogger sets the logger used for command traces.
func WithLogger(logger *log.Logger) ShellOption {
	return func(r *ShellRunner) { r.logger = logger }
}

// NewShellRunner creates a ShellRunner that announces and streams through
// printer.
func NewShellRunner(env runenv.Env, printer *output.Printer, opts ...ShellOption) *ShellRunner {
	r := &ShellRunner{
		env:     env,
		printer: printer,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements [Runner].
func (r *ShellRunner) Run(ctx context.Context, command string) (string, error) {
	r.printer.Command(command)
	return r.exec(ctx, command, r.printer.Writer())
}

// Output implements [Runner].
func (r *ShellRunner) Output(ctx context.Context, command string) (string, error) {
	return r.exec(ctx, command, nil)
}

func (r *ShellRunner) exec(ctx context.Context, command string, terminal io.Writer) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", fmt.Errorf("failed to parse command %q: %w", command, err)
	}

	var stdout bytes.Buffer
	combined := &lockedBuffer{}
	outs := []io.Writer{&stdout, combined}
	errs := []io.Writer{combined}
	if terminal != nil {
		shared := &lockedWriter{w: terminal}
		outs = append(outs, shared)
		errs = append(errs, shared)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(r.env.Environ()...)),
		interp.StdIO(nil, io.MultiWriter(outs...), io.MultiWriter(errs...)),
	}
	if r.dir != "" {
		opts = append(opts, interp.Dir(r.dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			r.logger.Debug("command failed", "command", command, "exit", int(status))
			return stdout.String(), &CommandError{
				Command:  command,
				ExitCode: int(status),
				Output:   combined.String(),
			}
		}
		return stdout.String(), fmt.Errorf("command %q: %w", command, err)
	}

	r.logger.Debug("command succeeded", "command", command)
	return stdout.String(), nil
}

// lockedBuffer is a bytes.Buffer safe for the concurrent writes os/exec
// makes when stdout and stderr share it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
