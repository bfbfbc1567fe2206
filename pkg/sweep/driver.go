package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/ports"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/google/uuid"
)

// maxPreflightErrors caps how many configurations preflight reports on.
const maxPreflightErrors = 20

var (
	// ErrNoDispatcher is returned by Run when the driver has no dispatcher.
	ErrNoDispatcher = errors.New("sweep driver has no dispatcher")

	// ErrAlreadyRunning is returned when Run is called on a busy driver.
	ErrAlreadyRunning = errors.New("sweep driver is already running")
)

// Driver runs sweeps sequentially: one configuration at a time, in
// expansion order, reporting each result before advancing.
//
// A Driver may be reused for several sweeps, but runs one at a time.
// Status is safe to call from other goroutines while Run is in progress.
type Driver struct {
	dispatcher ports.Dispatcher
	reporter   ports.Reporter
	store      ports.ProgressStore
	locker     ports.Locker
	lockTTL    time.Duration
	lockWait   time.Duration
	hooks      domain.Hooks
	logger     *slog.Logger

	stopOnFailure bool
	policy        SelectorPolicy
	start         int // -1 when unset
	resume        bool
	sweepID       string

	mu       sync.Mutex
	busy     bool
	progress domain.Progress
}

// New creates a Driver. Without options it stops on the first failure and
// treats unresolved selectors as fatal.
func New(opts ...Option) *Driver {
	d := &Driver{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		lockTTL:       DefaultLockTTL,
		lockWait:      DefaultLockWait,
		stopOnFailure: true,
		policy:        SelectorFatal,
		start:         -1,
		progress:      domain.Progress{State: domain.StateIdle},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Status returns a snapshot of the current or last sweep's progress.
func (d *Driver) Status() domain.Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

func (d *Driver) update(fn func(p *domain.Progress)) domain.Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.progress)
	d.progress.UpdatedAt = time.Now().UTC()
	return d.progress
}

// Check prepares every configuration of p without dispatching anything.
// It reports the same errors Run would abort on.
func (d *Driver) Check(ctx context.Context, p Plan) error {
	if err := p.check(); err != nil {
		return err
	}
	return d.preflight(ctx, p, 0)
}

func (d *Driver) preflight(ctx context.Context, p Plan, start int) error {
	var errs []error
	for c, err := range p.Cases(start, d.policy) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil && c.Skipped == nil && d.dispatcher != nil {
			if verr := d.dispatcher.Validate(p.Program, c.Config); verr != nil {
				err = &domain.RunError{Index: c.Index, Case: c.Name, Config: c.Config, Err: verr}
			}
		}
		if err != nil {
			errs = append(errs, err)
			if len(errs) >= maxPreflightErrors {
				d.logger.Warn("too many preflight errors, stopping the check", "shown", len(errs))
				break
			}
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &schema.AggregateError{Errors: errs}
	}
}

// Run executes the sweep described by p.
//
// The returned summary is non-nil once the sweep has been set up, whatever
// the final state. The error is nil exactly when the sweep completed; runs
// that failed while stop-on-failure is off do not make Run fail.
func (d *Driver) Run(ctx context.Context, p Plan) (*domain.Summary, error) {
	if d.dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	if err := p.check(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	d.busy = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
	}()

	// Reporting and persistence must outlive a cancelled sweep.
	bg := context.WithoutCancel(ctx)

	if d.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, d.lockWait)
		unlock, err := d.locker.Lock(lockCtx, p.Name, d.lockTTL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to lock sweep %q: %w", p.Name, err)
		}
		defer func() {
			if err := unlock(bg); err != nil {
				d.logger.Warn("failed to release sweep lock", "sweep", p.Name, "err", err)
			}
		}()
	}

	total := p.Len()
	start, err := d.startIndex(ctx, p.Name, total)
	if err != nil {
		return nil, err
	}

	sweepID := d.sweepID
	if sweepID == "" {
		sweepID = uuid.NewString()
	}

	x := &execution{
		startedAt: time.Now(),
		summary: &domain.Summary{
			Sweep:      p.Name,
			SweepID:    sweepID,
			State:      domain.StateIdle,
			Total:      total,
			StartIndex: start,
			NextIndex:  start,
		},
	}
	d.update(func(pr *domain.Progress) {
		*pr = domain.Progress{Sweep: p.Name, SweepID: sweepID, State: domain.StateIdle, Total: total, NextIndex: start}
	})

	logger := d.logger.With("sweep", p.Name, "sweep_id", sweepID)

	if err := d.preflight(ctx, p, start); err != nil {
		logger.Error("preflight failed, nothing dispatched", "err", err)
		return d.finish(bg, x, domain.StateAborted, fmt.Errorf("preflight: %w", err))
	}

	x.started = true
	progress := d.update(func(pr *domain.Progress) { pr.State = domain.StateRunning })
	x.summary.State = domain.StateRunning
	if err := d.save(bg, progress); err != nil {
		return d.finish(bg, x, domain.StateAborted, err)
	}
	if d.hooks.OnSweepStart != nil {
		d.hooks.OnSweepStart(bg, d.sweepEvent(domain.EventSweepStart, progress))
	}
	logger.Info("sweep started", "total", total, "start_index", start)

	for c, err := range p.Cases(start, d.policy) {
		if err != nil {
			return d.finish(bg, x, domain.StateAborted, err)
		}
		if ctx.Err() != nil {
			logger.Warn("sweep interrupted", "next_index", c.Index)
			return d.finish(bg, x, domain.StateAborted,
				fmt.Errorf("sweep interrupted before run %s: %w", describe(c), ctx.Err()))
		}

		result, runErr := d.runCase(ctx, logger, p, sweepID, c)
		if runErr != nil && !errors.Is(runErr, domain.ErrDispatchFailure) {
			return d.finish(bg, x, domain.StateAborted, runErr)
		}
		x.tally(result)

		if d.reporter != nil {
			if err := d.reporter.Report(bg, result); err != nil {
				return d.finish(bg, x, domain.StateAborted, fmt.Errorf("failed to report run %s: %w", describe(c), err))
			}
		}
		if d.hooks.OnRunFinish != nil {
			d.hooks.OnRunFinish(bg, d.runEvent(domain.EventRunFinish, p.Name, sweepID, c, &result))
		}

		if result.Outcome == domain.OutcomeInterrupted {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			logger.Warn("sweep interrupted", "index", c.Index, "case", c.Name)
			return d.finish(bg, x, domain.StateAborted,
				&domain.RunError{Index: c.Index, Case: c.Name, Config: c.Config, Err: cause})
		}

		x.summary.NextIndex = c.Index + 1
		progress := d.update(func(pr *domain.Progress) {
			pr.NextIndex = c.Index + 1
			pr.LastCase = c.Name
		})
		if err := d.save(bg, progress); err != nil {
			return d.finish(bg, x, domain.StateAborted, err)
		}

		if result.Failed() && d.stopOnFailure {
			logger.Error("run failed, stopping sweep", "index", c.Index, "case", c.Name, "exit_code", result.ExitCode)
			if runErr == nil {
				runErr = &domain.RunError{Index: c.Index, Case: c.Name, Config: c.Config,
					Err: &domain.DispatchFailure{ExitCode: result.ExitCode}}
			}
			return d.finish(bg, x, domain.StateAborted, runErr)
		}
	}

	return d.finish(bg, x, domain.StateCompleted, nil)
}

// runCase dispatches one prepared case, or produces the skipped result of a
// case the selector policy keeps out.
func (d *Driver) runCase(ctx context.Context, logger *slog.Logger, p Plan, sweepID string, c Case) (domain.RunResult, error) {
	if c.Skipped != nil {
		logger.Warn("configuration skipped", "index", c.Index, "case", c.Name, "reason", c.Skipped)
		return domain.RunResult{
			Index:     c.Index,
			Case:      c.Name,
			Config:    c.Config,
			Outcome:   domain.OutcomeSkipped,
			StartedAt: time.Now(),
			Error:     c.Skipped.Error(),
		}, nil
	}

	if d.hooks.OnRunStart != nil {
		d.hooks.OnRunStart(context.WithoutCancel(ctx), d.runEvent(domain.EventRunStart, p.Name, sweepID, c, nil))
	}
	logger.Debug("run started", "index", c.Index, "case", c.Name, "config", c.Config.String())

	result, err := d.dispatcher.Dispatch(ctx, p.Program, domain.Invocation{
		SweepID: sweepID,
		Index:   c.Index,
		Case:    c.Name,
		Config:  c.Config,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDispatchFailure) {
			logger.Error("run could not be started", "index", c.Index, "case", c.Name, "err", err)
		}
		return result, &domain.RunError{Index: c.Index, Case: c.Name, Config: c.Config, Err: err}
	}
	if result.Failed() {
		logger.Warn("run failed", "index", c.Index, "case", c.Name, "exit_code", result.ExitCode)
	}
	return result, nil
}

func (d *Driver) startIndex(ctx context.Context, name string, total int) (int, error) {
	start := 0
	if d.resume && d.store != nil {
		prev, err := d.store.Load(ctx, name)
		switch {
		case errors.Is(err, domain.ErrProgressNotFound):
			d.logger.Info("no saved progress, starting from the beginning", "sweep", name)
		case err != nil:
			return 0, fmt.Errorf("failed to load progress: %w", err)
		case prev.Total != total:
			return 0, &domain.ConfigurationError{
				Param:  "resume",
				Reason: fmt.Sprintf("saved progress covers %d configurations but the sweep has %d", prev.Total, total),
			}
		default:
			start = prev.NextIndex
			d.logger.Info("resuming sweep", "sweep", name, "next_index", start, "last_case", prev.LastCase)
		}
	}
	if d.start >= 0 {
		start = d.start
	}
	if start > total {
		return 0, fmt.Errorf("%w: start index %d, sweep has %d configurations", domain.ErrIndexOutOfRange, start, total)
	}
	return start, nil
}

func (d *Driver) save(ctx context.Context, progress domain.Progress) error {
	if d.store == nil {
		return nil
	}
	if err := d.store.Save(ctx, progress.Sweep, progress); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// finish moves the sweep to its terminal state and publishes the summary.
func (d *Driver) finish(ctx context.Context, x *execution, state domain.SweepState, cause error) (*domain.Summary, error) {
	s := x.summary
	s.State = state
	s.Elapsed = time.Since(x.startedAt)
	s.MeanRun, s.StdDevRun = durationStats(x.durations)

	progress := d.update(func(pr *domain.Progress) { pr.State = state })

	if x.started {
		if err := d.save(ctx, progress); err != nil {
			cause = errors.Join(cause, err)
		}
	}
	if d.reporter != nil {
		if err := d.reporter.Summarize(ctx, *s); err != nil {
			d.logger.Warn("failed to write summary", "err", err)
		}
	}
	if x.started && d.hooks.OnSweepFinish != nil {
		d.hooks.OnSweepFinish(ctx, d.sweepEvent(domain.EventSweepFinish, progress))
	}

	d.logger.Info("sweep finished",
		"sweep", s.Sweep,
		"state", s.State,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"skipped", s.Skipped,
		"interrupted", s.Interrupted,
		"elapsed", s.Elapsed.Round(time.Millisecond),
	)
	return s, cause
}

func (d *Driver) sweepEvent(t domain.EventType, progress domain.Progress) *domain.SweepEvent {
	return &domain.SweepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, Sweep: progress.Sweep, SweepID: progress.SweepID},
		State:     progress.State,
		Total:     progress.Total,
		Progress:  progress,
	}
}

func (d *Driver) runEvent(t domain.EventType, sweep, sweepID string, c Case, result *domain.RunResult) *domain.RunEvent {
	return &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, Sweep: sweep, SweepID: sweepID},
		Index:     c.Index,
		Case:      c.Name,
		Config:    c.Config,
		Result:    result,
	}
}

// execution holds the bookkeeping of one Run call.
type execution struct {
	startedAt time.Time
	started   bool // Past preflight
	summary   *domain.Summary
	durations []time.Duration
}

func (x *execution) tally(r domain.RunResult) {
	switch r.Outcome {
	case domain.OutcomeSucceeded:
		x.summary.Succeeded++
	case domain.OutcomeFailed:
		x.summary.Failed++
	case domain.OutcomeSkipped:
		x.summary.Skipped++
		return
	case domain.OutcomeInterrupted:
		x.summary.Interrupted++
	}
	x.durations = append(x.durations, r.Duration)
}
