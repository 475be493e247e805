package builtin

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
)

type actions struct {
	deps Deps
}

func (a actions) run(ctx context.Context, args registry.Args) (step.Value, error) {
	_, err := a.deps.ActionRunner.Run(ctx, args.String("command"))
	return step.None(), err
}

// createTag creates tag and pushes it to remote. With update set, an
// existing tag is moved.
func (a actions) createTag(ctx context.Context, args registry.Args) (step.Value, error) {
	tag := runenv.Expand(a.deps.Env, args.String("tag"))
	if tag == "" {
		return step.None(), fmt.Errorf("tag %q expands to nothing", args.String("tag"))
	}
	force := ""
	if args.Bool("update") {
		force = "--force "
	}
	return step.None(), a.tagAndPush(ctx, force, args.String("remote"), tag)
}

// updateMajorTag moves <prefix><major> to the current commit, for example
// v1 when TAG is v1.2.3.
func (a actions) updateMajorTag(ctx context.Context, args registry.Args) (step.Value, error) {
	tag, ok := a.deps.Env.Lookup(runenv.TagVar)
	if !ok {
		return step.None(), fmt.Errorf("%s is not set", runenv.TagVar)
	}
	prefix := args.String("prefix")
	version := strings.TrimPrefix(tag, prefix)
	major := semver.Major("v" + version)
	if major == "" {
		return step.None(), fmt.Errorf("cannot determine major version of %q", tag)
	}
	majorTag := prefix + strings.TrimPrefix(major, "v")
	return step.None(), a.tagAndPush(ctx, "--force ", args.String("remote"), majorTag)
}

func (a actions) tagAndPush(ctx context.Context, force, remote, tag string) error {
	if _, err := a.deps.ActionRunner.Run(ctx, "git tag "+force+tag); err != nil {
		return err
	}
	_, err := a.deps.ActionRunner.Run(ctx, fmt.Sprintf("git push %s%s tag %s", force, remote, tag))
	return err
}
