package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// DefaultGracePeriod is how long an interrupted run may take to exit after
// SIGTERM before it is killed.
const DefaultGracePeriod = 10 * time.Second

// Environment variables set for every run.
const (
	EnvCase    = "SFLSWEEP_CASE"
	EnvIndex   = "SFLSWEEP_INDEX"
	EnvSweepID = "SFLSWEEP_SWEEP_ID"
)

// Dispatcher starts one external process per configuration and waits for it.
// It implements ports.Dispatcher.
type Dispatcher struct {
	logger *slog.Logger
	grace  time.Duration
	output io.Writer
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Runs are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithGracePeriod sets how long an interrupted run may take to exit.
func WithGracePeriod(grace time.Duration) Option {
	return func(d *Dispatcher) {
		d.grace = grace
	}
}

// WithOutput sets where child stdout and stderr go when the program has no
// log directory. Defaults to os.Stderr, keeping stdout for run reports.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.output = w
	}
}

// NewDispatcher creates a new process Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		grace:  DefaultGracePeriod,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate checks that cfg can be passed to program.
func (d *Dispatcher) Validate(program domain.Program, cfg domain.Configuration) error {
	_, err := Command(program, cfg)
	return err
}

// Command returns the full argv for running cfg: the program command, its
// fixed arguments, then one flag per configuration key.
func Command(program domain.Program, cfg domain.Configuration) ([]string, error) {
	if strings.TrimSpace(program.Command) == "" {
		return nil, &domain.ConfigurationError{Reason: "program command is empty"}
	}
	flags, err := Flags(cfg, program.FlagStyle)
	if err != nil {
		return nil, err
	}
	argv := make([]string, 0, 1+len(program.Args)+len(flags))
	argv = append(argv, program.Command)
	argv = append(argv, program.Args...)
	return append(argv, flags...), nil
}

// LogPath returns the file a run's output is written to under logDir.
func LogPath(logDir string, index int, caseName string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, caseName)
	return filepath.Join(logDir, fmt.Sprintf("%d-%s.log", index, safe))
}

// Dispatch runs inv to completion.
//
// A non-zero exit is reported through the result with a nil error. Errors
// are returned for configurations that cannot be encoded and for processes
// that cannot be started; in the latter case the result is also filled in
// with exit code -1. A run cut short by ctx is reported as interrupted.
func (d *Dispatcher) Dispatch(ctx context.Context, program domain.Program, inv domain.Invocation) (domain.RunResult, error) {
	result := domain.RunResult{
		Index:    inv.Index,
		Case:     inv.Case,
		Config:   inv.Config,
		Outcome:  domain.OutcomeFailed,
		ExitCode: -1,
	}

	argv, err := Command(program, inv.Config)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = program.Dir
	cmd.Env = d.environ(program, inv)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = d.grace

	out := d.output
	if program.LogDir != "" {
		f, err := openLog(program.LogDir, inv)
		if err != nil {
			fail := &domain.DispatchFailure{ExitCode: -1, Err: err}
			result.Error = fail.Error()
			return result, fail
		}
		defer f.Close()
		out = f
	}
	cmd.Stdout = out
	cmd.Stderr = out

	d.logger.Debug("dispatching run", "index", inv.Index, "case", inv.Case, "argv", argv)

	result.StartedAt = time.Now()
	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(result.StartedAt)
		if ctx.Err() != nil {
			result.Outcome = domain.OutcomeInterrupted
			result.Error = ctx.Err().Error()
			return result, nil
		}
		fail := &domain.DispatchFailure{ExitCode: -1, Err: err}
		result.Error = fail.Error()
		return result, fail
	}

	err = cmd.Wait()
	result.Duration = time.Since(result.StartedAt)
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case ctx.Err() != nil:
		result.Outcome = domain.OutcomeInterrupted
		result.Error = ctx.Err().Error()
	case err == nil, errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState.Success():
		// ErrWaitDelay alone means a grandchild kept the output open after
		// a clean exit.
		result.Outcome = domain.OutcomeSucceeded
		result.Error = ""
	default:
		result.Outcome = domain.OutcomeFailed
		result.Error = (&domain.DispatchFailure{ExitCode: result.ExitCode}).Error()
	}

	d.logger.Debug("run exited",
		"index", inv.Index,
		"case", inv.Case,
		"outcome", result.Outcome,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result, nil
}

func (d *Dispatcher) environ(program domain.Program, inv domain.Invocation) []string {
	env := os.Environ()

	keys := make([]string, 0, len(program.Env))
	for k := range program.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = append(env, k+"="+program.Env[k])
	}

	return append(env,
		EnvCase+"="+inv.Case,
		EnvIndex+"="+strconv.Itoa(inv.Index),
		EnvSweepID+"="+inv.SweepID,
	)
}

func openLog(dir string, inv domain.Invocation) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(LogPath(dir, inv.Index, inv.Case))
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	return f, nil
}

// terminate asks the process to stop. Windows has no SIGTERM, so the
// process is killed outright there.
func terminate(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(syscall.SIGTERM)
}
