package sweep

import (
	"log/slog"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed driver keeps a sweep locked.
// Lockers extend a held lock, so it does not bound the sweep duration.
const DefaultLockTTL = time.Minute

// DefaultLockWait is how long Run waits for a sweep held by another driver.
const DefaultLockWait = 5 * time.Second

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithDispatcher sets the strategy for running configurations.
// This is required.
func WithDispatcher(dispatcher ports.Dispatcher) Option {
	return func(d *Driver) {
		d.dispatcher = dispatcher
	}
}

// WithReporter configures where run results and the summary are published.
func WithReporter(reporter ports.Reporter) Option {
	return func(d *Driver) {
		d.reporter = reporter
	}
}

// WithProgressStore configures persistence of sweep progress.
// If nil, progress only lives as long as the driver.
func WithProgressStore(store ports.ProgressStore) Option {
	return func(d *Driver) {
		d.store = store
	}
}

// WithLocker guards each sweep name so that only one driver runs it at a time.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(d *Driver) {
		d.locker = locker
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(d *Driver) {
		d.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithStopOnFailure decides whether the first failed run aborts the sweep.
// The default is true.
func WithStopOnFailure(stop bool) Option {
	return func(d *Driver) {
		d.stopOnFailure = stop
	}
}

// WithSelectorPolicy sets the policy for unresolved selectors.
func WithSelectorPolicy(policy SelectorPolicy) Option {
	return func(d *Driver) {
		d.policy = policy
	}
}

// WithStartIndex starts the sweep at configuration index n, skipping the
// configurations before it. It takes precedence over WithResume.
func WithStartIndex(n int) Option {
	return func(d *Driver) {
		d.start = n
	}
}

// WithResume starts the sweep where the stored progress left off.
// It has no effect without a progress store.
func WithResume(resume bool) Option {
	return func(d *Driver) {
		d.resume = resume
	}
}

// WithSweepID sets the identifier passed to every run.
// If empty, a random UUID is generated per Run.
func WithSweepID(id string) Option {
	return func(d *Driver) {
		d.sweepID = id
	}
}
