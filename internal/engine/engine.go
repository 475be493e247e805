// Package engine runs a release configuration from version to actions.
//
// A run is a small state machine:
//
//	Pending -> ResolvingVersion -> EvaluatingGuards -> RunningActions -> Done
//	                 |                    |                  |
//	                 +--------------------+------------------+---> Failed
//
// Before anything is invoked, every configured step is resolved against the
// registry and its arguments bound ([Engine.Plan]). Unknown names and
// argument mismatches therefore fail the run with nothing executed.
//
// Once the version is resolved, the tag is formatted and published as TAG in
// the run environment, exactly once, before the first guard. A falsy guard
// ends the run successfully without evaluating later guards or running any
// action. An error from any capability stops the run immediately and is
// returned unchanged.
//
// Key types:
//   - [Engine] drives runs against an injected registry and environment
//   - [Plan] is a configuration resolved and bound against a registry
//   - [Outcome] records what a finished run did
//   - [Event] and [ProgressCallback] report progress step by step
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cjw296/carthorse/internal/config"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
	"github.com/cjw296/carthorse/internal/tagformat"
)

// State is a position in the run state machine.
type State int

const (
	StatePending State = iota
	StateResolvingVersion
	StateEvaluatingGuards
	StateRunningActions
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolvingVersion:
		return "resolving-version"
	case StateEvaluatingGuards:
		return "evaluating-guards"
	case StateRunningActions:
		return "running-actions"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event describes a step about to be invoked.
type Event struct {
	// State is the engine state the step runs in.
	State State

	// Step is the step about to be invoked.
	Step step.Step

	// Index is the 1-based position of Step within its group.
	Index int

	// Total is the number of steps in the group.
	Total int
}

// ProgressCallback is invoked before each step is invoked.
type ProgressCallback func(Event)

// Outcome records what a run did.
type Outcome struct {
	// Version is the resolved version text.
	Version string

	// Tag is the formatted tag published as TAG.
	Tag string

	// StoppedBy is the guard that returned a falsy value, or nil when every
	// guard passed.
	StoppedBy *step.Step

	// ActionsRun counts the actions that completed.
	ActionsRun int
}

// Engine runs configurations against a capability registry.
//
// The registry is only read, so an Engine, or several, may share it across
// sequential runs. An Engine drives one run at a time.
type Engine struct {
	registry *registry.Registry
	env      runenv.Env
	now      func() time.Time
	logger   *log.Logger
	progress ProgressCallback
	state    State
}

// Option configures an [Engine].
type Option func(*Engine)

// WithClock sets the clock the {now} tag placeholder reads.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for run traces.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithProgress sets a callback invoked before every step.
func WithProgress(cb ProgressCallback) Option {
	return func(e *Engine) { e.progress = cb }
}

// New creates an Engine dispatching to reg and publishing TAG into env.
func New(reg *registry.Registry, env runenv.Env, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		env:      env,
		now:      time.Now,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the state of the current or most recent run.
func (e *Engine) State() State {
	return e.state
}

// Run executes cfg.
//
// A guard short-circuit is a successful run: the returned [Outcome] has
// StoppedBy set and no actions run. Errors from capabilities are returned
// unwrapped; configuration errors found while planning wrap
// [registry.ErrUnknownCapability], [registry.ErrBadArguments] or
// [tagformat.ErrInvalidTemplate].
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (*Outcome, error) {
	e.state = StatePending

	plan, err := e.Plan(cfg)
	if err != nil {
		return nil, e.fail(err)
	}

	outcome := &Outcome{}

	e.transition(StateResolvingVersion)
	e.report(plan.Version, 1, 1)
	value, err := plan.Version.invoke(ctx)
	if err != nil {
		return outcome, e.fail(err)
	}
	outcome.Version = value.String()

	outcome.Tag, err = tagformat.Format(plan.TagFormat, tagformat.Vars{Version: outcome.Version, Now: e.now()})
	if err != nil {
		return outcome, e.fail(err)
	}
	if err := e.env.Set(runenv.TagVar, outcome.Tag); err != nil {
		return outcome, e.fail(fmt.Errorf("failed to publish %s: %w", runenv.TagVar, err))
	}
	e.logger.Debug("published tag", "version", outcome.Version, runenv.TagVar, outcome.Tag)

	e.transition(StateEvaluatingGuards)
	for i, guard := range plan.Guards {
		e.report(guard, i+1, len(plan.Guards))
		result, err := guard.invoke(ctx)
		if err != nil {
			return outcome, e.fail(err)
		}
		if !step.IsTruthy(result) {
			stopped := guard.Step
			outcome.StoppedBy = &stopped
			e.logger.Debug("guard stopped run", "guard", guard.Step.String())
			e.transition(StateDone)
			return outcome, nil
		}
	}

	e.transition(StateRunningActions)
	for i, action := range plan.Actions {
		e.report(action, i+1, len(plan.Actions))
		if _, err := action.invoke(ctx); err != nil {
			return outcome, e.fail(err)
		}
		outcome.ActionsRun++
	}

	e.transition(StateDone)
	return outcome, nil
}

func (e *Engine) transition(s State) {
	e.logger.Debug("state", "from", e.state, "to", s)
	e.state = s
}

func (e *Engine) fail(err error) error {
	e.logger.Debug("run failed", "state", e.state, "error", err)
	e.state = StateFailed
	return err
}

func (e *Engine) report(b Bound, index, total int) {
	e.logger.Debug("invoking", "step", b.Step.String(), "index", index, "total", total)
	if e.progress != nil {
		e.progress(Event{State: e.state, Step: b.Step, Index: index, Total: total})
	}
}
