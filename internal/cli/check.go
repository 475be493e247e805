package cli

import (
	"github.com/spf13/cobra"

	"github.com/cjw296/carthorse/internal/config"
)

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the release configuration without running it",
		Long: `Load the release configuration, resolve every step against the
available capabilities and check its arguments and the tag format.
Nothing is executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(app, cmd)
			if err != nil {
				return NewExitError(1, err)
			}

			cfg, err := config.Load(settings.ConfigPath)
			if err != nil {
				return exitErrorFor(err)
			}

			plan, err := newEngine(app, newRegistry(app, true)).Plan(cfg)
			if err != nil {
				return exitErrorFor(err)
			}

			app.Printer.Message("%s: version from %s, %d guard(s), %d action(s)",
				settings.ConfigPath, plan.Version.Step, len(plan.Guards), len(plan.Actions))
			return nil
		},
	}
}
