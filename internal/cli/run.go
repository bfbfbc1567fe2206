package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/sflsweep"
	"github.com/aretw0/sflsweep/internal/presentation/tui"
	httpadapter "github.com/aretw0/sflsweep/pkg/adapters/http"
	"github.com/aretw0/sflsweep/pkg/adapters/process"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/metrics"
	"github.com/aretw0/sflsweep/pkg/ports"
	"github.com/aretw0/sflsweep/pkg/sweep"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrAborted is returned when a sweep ends before its last configuration.
var ErrAborted = errors.New("sweep aborted")

const shutdownTimeout = 5 * time.Second

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Path       string
	KeepGoing  bool
	Resume     bool
	From       int // Negative keeps the default start
	Format     string
	Progress   ProgressOptions
	StatusAddr string
	DryRun     bool
	LogLevel   string
	LogFormat  string

	// SelectorPolicy overrides the definition when set.
	SelectorPolicy string

	Stdout io.Writer
	Stderr io.Writer

	// Dispatcher replaces the process dispatcher. Tests use it.
	Dispatcher ports.Dispatcher
}

func (o *RunOptions) writers() (stdout, stderr io.Writer) {
	stdout, stderr = o.Stdout, o.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}

// Execute handles the run command: it loads the definition, wires the
// progress backend, reporting and status server, then runs the sweep.
// It returns ErrAborted (wrapped with the cause) when the sweep does not
// complete.
func Execute(ctx context.Context, opts RunOptions) error {
	stdout, stderr := opts.writers()

	logger, err := createLogger(stderr, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return dryRun(ctx, opts, stdout, logger)
	}

	reporter, err := createReporter(opts.Format, stdout)
	if err != nil {
		return err
	}

	backend, err := openProgress(ctx, opts.Progress)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Warn("failed to close progress store", "err", err)
		}
	}()

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = process.NewDispatcher(process.WithLogger(logger), process.WithOutput(stderr))
	}

	hooks := []domain.Hooks{createDebugHooks(logger)}
	var registry *prometheus.Registry
	if opts.StatusAddr != "" {
		registry = prometheus.NewRegistry()
		collectors := metrics.New()
		if err := collectors.Register(registry); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = append(hooks, collectors.Hooks())
	}

	swOpts := []sflsweep.Option{
		sflsweep.WithDispatcher(dispatcher),
		sflsweep.WithReporter(reporter),
		sflsweep.WithProgressStore(backend.store),
		sflsweep.WithLifecycleHooks(domain.CombineHooks(hooks...)),
		sflsweep.WithLogger(logger),
		sflsweep.WithResume(opts.Resume),
	}
	if opts.KeepGoing {
		swOpts = append(swOpts, sflsweep.WithStopOnFailure(false))
	}
	if opts.From >= 0 {
		swOpts = append(swOpts, sflsweep.WithStartIndex(opts.From))
	}
	if backend.locker != nil {
		swOpts = append(swOpts, sflsweep.WithLocker(backend.locker, sweep.DefaultLockTTL))
	}
	if opts.SelectorPolicy != "" {
		policy, err := sweep.ParseSelectorPolicy(opts.SelectorPolicy)
		if err != nil {
			return err
		}
		swOpts = append(swOpts, sflsweep.WithSelectorPolicy(policy))
	}

	sw, err := sflsweep.Load(opts.Path, swOpts...)
	if err != nil {
		return err
	}

	if registry != nil {
		server := httpadapter.NewServer(opts.StatusAddr, httpadapter.NewHandler(sw, registry), logger)
		if _, err := server.Start(); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown failed", "err", err)
			}
		}()
	}

	if opts.Format != FormatJSON && isTerminal(stdout) {
		tui.PrintHeader(stdout, strings.TrimSpace(sflsweep.Version), sw.Name(), sw.Len())
	}

	summary, err := sw.Run(ctx)
	if err == nil {
		return nil
	}
	if summary == nil {
		return err
	}
	if isInterrupted(err) {
		printSystemMessage(stderr, "Interrupted at configuration %d/%d. Resume with --resume.", summary.NextIndex, summary.Total)
	}
	return fmt.Errorf("%w: %w", ErrAborted, err)
}

// dryRun prints what would be dispatched after the same checks a real run
// makes, without touching progress.
func dryRun(ctx context.Context, opts RunOptions, stdout io.Writer, logger *slog.Logger) error {
	swOpts := []sflsweep.Option{sflsweep.WithLogger(logger)}
	if opts.SelectorPolicy != "" {
		policy, err := sweep.ParseSelectorPolicy(opts.SelectorPolicy)
		if err != nil {
			return err
		}
		swOpts = append(swOpts, sflsweep.WithSelectorPolicy(policy))
	}
	sw, err := sflsweep.Load(opts.Path, swOpts...)
	if err != nil {
		return err
	}
	if err := sw.Check(ctx); err != nil {
		return err
	}
	return WritePlan(stdout, sw, PlanOptions{Commands: true, From: max(opts.From, 0)})
}
