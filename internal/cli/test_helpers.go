package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cjw296/carthorse/internal/output"
	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/runenv"
)

// testApp is an App wired to in-memory collaborators, with handles on the
// pieces tests inspect.
type testApp struct {
	*App
	Env    *runenv.Map
	Runner *process.MockRunner
	Out    *bytes.Buffer
}

// newTestApp creates an App whose environment starts as vars and whose
// commands are recorded by a MockRunner.
func newTestApp(vars map[string]string) *testApp {
	out := &bytes.Buffer{}
	printer := output.NewPrinterWithWriter(out)
	env := runenv.NewMap(vars)
	runner := &process.MockRunner{Printer: printer}
	return &testApp{
		App: &App{
			Env:     env,
			Printer: printer,
			Logger:  log.New(io.Discard),
			Runner:  runner,
			Now:     func() time.Time { return time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC) },
		},
		Env:    env,
		Runner: runner,
		Out:    out,
	}
}

// writeConfigFile writes a release configuration into a temporary directory
// and returns its path.
func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
