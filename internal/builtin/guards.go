package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
)

// DefaultRemote is the git remote used when none is configured.
const DefaultRemote = "origin"

type guards struct {
	deps Deps
}

func (g guards) never(context.Context, registry.Args) (step.Value, error) {
	return step.None(), nil
}

func (g guards) always(context.Context, registry.Args) (step.Value, error) {
	return step.Bool(true), nil
}

// versionNotTagged is true when TAG does not exist yet. Tags are fetched
// from remote first when the repository has any remotes.
func (g guards) versionNotTagged(ctx context.Context, args registry.Args) (step.Value, error) {
	tag, ok := g.deps.Env.Lookup(runenv.TagVar)
	if !ok {
		return step.None(), fmt.Errorf("%s is not set", runenv.TagVar)
	}

	remotes, err := g.deps.Runner.Run(ctx, "git remote -v")
	if err != nil {
		return step.None(), err
	}
	if strings.TrimSpace(remotes) != "" {
		fetch := fmt.Sprintf("git fetch %s 'refs/tags/*:refs/tags/*'", args.String("remote"))
		if _, err := g.deps.Runner.Run(ctx, fetch); err != nil {
			return step.None(), err
		}
	}

	_, err = g.deps.Runner.Run(ctx, "git rev-parse --verify -q "+tag)
	var cmdErr *process.CommandError
	switch {
	case err == nil:
		g.deps.Printer.Message("Version is already tagged.")
		return step.Bool(false), nil
	case errors.As(err, &cmdErr) && cmdErr.ExitCode == 1:
		g.deps.Printer.Message("No tag found.")
		return step.Bool(true), nil
	default:
		return step.None(), err
	}
}
