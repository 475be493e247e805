// Package cli provides the carthorse command line interface.
//
// The root command loads a release configuration, builds the capability
// registry and runs it with the engine:
//
//	carthorse [--config pyproject.toml] [--dry-run] [--log-level warn]
//
// Subcommands:
//   - check validates a configuration without running anything
//   - list shows the available capabilities
//
// Settings resolve flag > CARTHORSE_ environment variable > default.
//
// Key types:
//   - [App] holds the injected collaborators, replaced by mocks in tests
//   - [ExitError] carries the process exit status out of a command
package cli

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cjw296/carthorse/internal/config"
	"github.com/cjw296/carthorse/internal/output"
	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/runenv"
)

// Version is the release version, set with -ldflags.
var Version = "dev"

// App holds the collaborators commands run with.
type App struct {
	// Env is the run environment TAG is published into.
	Env runenv.Env

	// Printer receives user-facing output.
	Printer *output.Printer

	// Logger receives diagnostics. Its level follows --log-level.
	Logger *log.Logger

	// Runner executes commands. Actions use a [process.DryRunner] instead
	// when --dry-run is set.
	Runner process.Runner

	// Now is the clock for the {now} tag placeholder.
	Now func() time.Time

	// Dir is the directory built-ins resolve relative files against.
	// Empty means the working directory.
	Dir string
}

// NewApp creates an App wired to the process environment and terminal.
func NewApp() *App {
	env := runenv.OS()
	printer := output.NewPrinter()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "carthorse",
		Level:  log.WarnLevel,
	})
	return &App{
		Env:     env,
		Printer: printer,
		Logger:  logger,
		Runner:  process.NewShellRunner(env, printer, process.WithLogger(logger)),
		Now:     time.Now,
	}
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carthorse",
		Short: "Tag releases when their conditions are met",
		Long: `carthorse resolves a version from project metadata, checks a list of
guards and, if they all pass, runs a list of actions such as creating and
pushing a version tag.

Configuration is read from [tool.carthorse] in a TOML file or the
carthorse key of a YAML file:

  [tool.carthorse]
  version-from = "poetry"
  when = ["version-not-tagged"]
  actions = [
    { run = "poetry publish --build" },
    { name = "create-tag" },
  ]`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(app, cmd)
			if err != nil {
				return NewExitError(1, err)
			}
			return runRelease(cmd.Context(), app, settings)
		},
	}

	rootCmd.PersistentFlags().String("config", config.DefaultConfigPath, "release configuration file (.toml, .yml or .yaml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultSettings().LogLevel, "diagnostic log level: debug, info, warn or error")
	rootCmd.Flags().Bool("dry-run", false, "announce actions without executing them")

	rootCmd.AddCommand(
		newCheckCommand(app),
		newListCommand(app),
	)

	return rootCmd
}

// loadSettings resolves settings for cmd and applies the log level.
func loadSettings(app *App, cmd *cobra.Command) (*config.Settings, error) {
	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	settings, err := loader.Load()
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	app.Logger.SetLevel(level)
	app.Logger.Debug("settings", "config", settings.ConfigPath, "dry-run", settings.DryRun)

	return settings, nil
}

// Execute runs the root command and exits the process with its status.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(NewApp()),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		if code, ok := IsExitError(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
