package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/sflsweep/internal/logging"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/ports"
	"github.com/aretw0/sflsweep/pkg/report"
	"golang.org/x/term"
)

// Report formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// createLogger configures the application logger. Logs always go to w
// (stderr), keeping stdout for run reports.
func createLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, lvl, f), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func createReporter(format string, w io.Writer) (ports.Reporter, error) {
	switch format {
	case "", FormatText:
		return report.NewText(w, report.WithColor(isTerminal(w))), nil
	case FormatJSON:
		return report.NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

func createDebugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnSweepStart: func(ctx context.Context, e *domain.SweepEvent) {
			logger.Debug("Sweep Start", "sweep_id", e.SweepID, "total", e.Total, "next_index", e.Progress.NextIndex)
		},
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "index", e.Index, "case", e.Case)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Result != nil {
				logger.Debug("Run Finish", "index", e.Index, "case", e.Case, "outcome", e.Result.Outcome, "exit_code", e.Result.ExitCode)
			}
		},
		OnSweepFinish: func(ctx context.Context, e *domain.SweepEvent) {
			logger.Debug("Sweep Finish", "sweep_id", e.SweepID, "state", e.State)
		},
	}
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isInterrupted reports whether err comes from a cancelled sweep.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
