package cli

import (
	"github.com/spf13/cobra"

	"github.com/cjw296/carthorse/internal/registry"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available capabilities",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			reg := newRegistry(app, true)
			for _, g := range registry.Groups {
				app.Printer.List(string(g), reg.Names(g))
			}
		},
	}
}
