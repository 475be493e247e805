package engine

import (
	"context"
	"fmt"

	"github.com/cjw296/carthorse/internal/config"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/step"
	"github.com/cjw296/carthorse/internal/tagformat"
)

// Bound is a step resolved to its capability with arguments bound.
type Bound struct {
	Group      registry.Group
	Step       step.Step
	Capability *registry.Capability
	Args       registry.Args
}

func (b Bound) invoke(ctx context.Context) (step.Value, error) {
	return b.Capability.Fn(ctx, b.Args)
}

// Plan is a configuration resolved against a registry, ready to run.
type Plan struct {
	Version   Bound
	Guards    []Bound
	Actions   []Bound
	TagFormat string
}

// Plan resolves and binds every step of cfg without invoking anything.
//
// It also checks the tag format template. The first problem found is
// returned, prefixed with the step's location such as "when[1]".
func (e *Engine) Plan(cfg *config.Config) (*Plan, error) {
	if _, err := tagformat.Format(cfg.TagFormat, tagformat.Vars{}); err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyTagFormat, err)
	}

	version, err := e.bind(registry.VersionFrom, cfg.VersionFrom)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", registry.VersionFrom, err)
	}

	guards, err := e.bindAll(registry.When, cfg.When)
	if err != nil {
		return nil, err
	}

	actions, err := e.bindAll(registry.Actions, cfg.Actions)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Version:   version,
		Guards:    guards,
		Actions:   actions,
		TagFormat: cfg.TagFormat,
	}, nil
}

func (e *Engine) bindAll(g registry.Group, steps []step.Step) ([]Bound, error) {
	bound := make([]Bound, 0, len(steps))
	for i, s := range steps {
		b, err := e.bind(g, s)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", g, i, err)
		}
		bound = append(bound, b)
	}
	return bound, nil
}

func (e *Engine) bind(g registry.Group, s step.Step) (Bound, error) {
	c, err := e.registry.Resolve(g, s)
	if err != nil {
		return Bound{}, err
	}
	args, err := c.Bind(s)
	if err != nil {
		return Bound{}, err
	}
	return Bound{Group: g, Step: s, Capability: c, Args: args}, nil
}
