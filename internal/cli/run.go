package cli

import (
	"context"

	"github.com/cjw296/carthorse/internal/builtin"
	"github.com/cjw296/carthorse/internal/config"
	"github.com/cjw296/carthorse/internal/engine"
	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/registry"
)

// newRegistry builds the built-in registry. Actions get a DryRunner in dry
// runs; version sources and guards always use the real runner.
func newRegistry(app *App, dryRun bool) *registry.Registry {
	actionRunner := app.Runner
	if dryRun {
		actionRunner = process.NewDryRunner(app.Printer)
	}
	return builtin.NewRegistry(builtin.Deps{
		Env:          app.Env,
		Runner:       app.Runner,
		ActionRunner: actionRunner,
		Printer:      app.Printer,
		Dir:          app.Dir,
	})
}

func newEngine(app *App, reg *registry.Registry) *engine.Engine {
	return engine.New(reg, app.Env,
		engine.WithClock(app.Now),
		engine.WithLogger(app.Logger),
		engine.WithProgress(func(ev engine.Event) {
			app.Logger.Info(ev.State.String(), "step", ev.Step.String(), "index", ev.Index, "total", ev.Total)
		}),
	)
}

func runRelease(ctx context.Context, app *App, settings *config.Settings) error {
	cfg, err := config.Load(settings.ConfigPath)
	if err != nil {
		return exitErrorFor(err)
	}

	if settings.DryRun {
		app.Printer.DryRun()
	}

	outcome, err := newEngine(app, newRegistry(app, settings.DryRun)).Run(ctx, cfg)
	if err != nil {
		return exitErrorFor(err)
	}

	if outcome.StoppedBy != nil {
		app.Printer.Stopped(outcome.StoppedBy.String())
		return nil
	}
	app.Printer.Summary(outcome.Tag, outcome.ActionsRun)
	return nil
}
