package sflsweep

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/aretw0/sflsweep/internal/definition"
	"github.com/aretw0/sflsweep/pkg/adapters/process"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/ports"
	"github.com/aretw0/sflsweep/pkg/sweep"
)

// Sweep is the high-level entry point of the library.
// It pairs a plan with a driver configured for it.
type Sweep struct {
	plan   sweep.Plan
	driver *sweep.Driver

	dispatcher ports.Dispatcher
	reporter   ports.Reporter
	store      ports.ProgressStore
	locker     ports.Locker
	lockTTL    time.Duration
	hooks      domain.Hooks
	logger     *slog.Logger
	stop       bool
	policy     sweep.SelectorPolicy
	resume     bool
	start      int
}

// Option defines a functional option for configuring a Sweep.
type Option func(*Sweep)

// WithDispatcher replaces the default process dispatcher.
func WithDispatcher(d ports.Dispatcher) Option {
	return func(s *Sweep) {
		s.dispatcher = d
	}
}

// WithReporter publishes every run result and the closing summary.
func WithReporter(r ports.Reporter) Option {
	return func(s *Sweep) {
		s.reporter = r
	}
}

// WithProgressStore persists progress so an interrupted sweep can resume.
func WithProgressStore(store ports.ProgressStore) Option {
	return func(s *Sweep) {
		s.store = store
	}
}

// WithLocker keeps two invocations of the same sweep from running at once.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(s *Sweep) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.Hooks) Option {
	return func(s *Sweep) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweep) {
		s.logger = logger
	}
}

// WithStopOnFailure overrides the definition's failure policy.
func WithStopOnFailure(stop bool) Option {
	return func(s *Sweep) {
		s.stop = stop
	}
}

// WithSelectorPolicy overrides the definition's unresolved-selector policy.
func WithSelectorPolicy(policy sweep.SelectorPolicy) Option {
	return func(s *Sweep) {
		s.policy = policy
	}
}

// WithResume continues from the saved progress of the sweep, if any.
func WithResume(resume bool) Option {
	return func(s *Sweep) {
		s.resume = resume
	}
}

// WithStartIndex starts from configuration n, overriding saved progress.
func WithStartIndex(n int) Option {
	return func(s *Sweep) {
		s.start = n
	}
}

// Load reads a sweep definition (YAML, JSON or HCL, by extension) and
// prepares a Sweep for it. Options override the policies the file asks for.
func Load(path string, opts ...Option) (*Sweep, error) {
	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}
	defaults := []Option{
		WithStopOnFailure(def.StopOnFailure),
		WithSelectorPolicy(def.SelectorPolicy),
	}
	return New(def.Plan, append(defaults, opts...)...)
}

// New prepares a Sweep for a plan built in code.
func New(plan sweep.Plan, opts ...Option) (*Sweep, error) {
	if plan.Space == nil || plan.Name == "" {
		return nil, fmt.Errorf("%w: a sweep needs a name and a parameter space", domain.ErrConfiguration)
	}

	s := &Sweep{
		plan:   plan,
		stop:   true,
		policy: sweep.SelectorFatal,
		start:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("sweep", plan.Name)

	if s.dispatcher == nil {
		s.dispatcher = process.NewDispatcher(process.WithLogger(s.logger))
	}

	driverOpts := []sweep.Option{
		sweep.WithDispatcher(s.dispatcher),
		sweep.WithHooks(s.hooks),
		sweep.WithLogger(s.logger),
		sweep.WithStopOnFailure(s.stop),
		sweep.WithSelectorPolicy(s.policy),
		sweep.WithResume(s.resume),
		sweep.WithStartIndex(s.start),
	}
	if s.reporter != nil {
		driverOpts = append(driverOpts, sweep.WithReporter(s.reporter))
	}
	if s.store != nil {
		driverOpts = append(driverOpts, sweep.WithProgressStore(s.store))
	}
	if s.locker != nil {
		driverOpts = append(driverOpts, sweep.WithLocker(s.locker, s.lockTTL))
	}
	s.driver = sweep.New(driverOpts...)

	return s, nil
}

// Name returns the sweep name.
func (s *Sweep) Name() string { return s.plan.Name }

// Plan returns the plan the sweep runs.
func (s *Sweep) Plan() sweep.Plan { return s.plan }

// Len returns the number of configurations of the sweep.
func (s *Sweep) Len() int { return s.plan.Len() }

// StopOnFailure reports the failure policy in effect.
func (s *Sweep) StopOnFailure() bool { return s.stop }

// SelectorPolicy reports the unresolved-selector policy in effect.
func (s *Sweep) SelectorPolicy() sweep.SelectorPolicy { return s.policy }

// Cases lists every prepared case in dispatch order without running anything.
func (s *Sweep) Cases() iter.Seq2[sweep.Case, error] {
	return s.plan.Cases(0, s.policy)
}

// Check prepares and validates every configuration without dispatching.
func (s *Sweep) Check(ctx context.Context) error {
	return s.driver.Check(ctx, s.plan)
}

// Run dispatches the sweep. See sweep.Driver.Run.
func (s *Sweep) Run(ctx context.Context) (*domain.Summary, error) {
	return s.driver.Run(ctx, s.plan)
}

// Status returns a snapshot of the sweep progress. It is safe to call while
// Run is in progress.
func (s *Sweep) Status() domain.Progress {
	return s.driver.Status()
}
