// Package report publishes run results as they happen: a human-readable
// line per run, or one JSON object per line for tooling.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/muesli/termenv"
)

// Text writes one line per run and a closing summary line.
// It implements ports.Reporter.
type Text struct {
	out     *termenv.Output
	palette map[domain.Outcome]termenv.Color
}

// TextOption configures the text reporter.
type TextOption func(*textConfig)

type textConfig struct {
	color bool
}

// WithColor enables coloured outcomes. Callers decide, typically by
// checking whether the writer is a terminal.
func WithColor(color bool) TextOption {
	return func(c *textConfig) {
		c.color = color
	}
}

// NewText creates a text reporter writing to w (os.Stdout when nil).
func NewText(w io.Writer, opts ...TextOption) *Text {
	if w == nil {
		w = os.Stdout
	}
	var cfg textConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	profile := termenv.Ascii
	if cfg.color {
		profile = termenv.ColorProfile()
	}
	out := termenv.NewOutput(w, termenv.WithProfile(profile))

	return &Text{
		out: out,
		palette: map[domain.Outcome]termenv.Color{
			domain.OutcomeSucceeded:   out.Color("#4ade80"),
			domain.OutcomeFailed:      out.Color("#f87171"),
			domain.OutcomeSkipped:     out.Color("#facc15"),
			domain.OutcomeInterrupted: out.Color("#fb923c"),
		},
	}
}

func (t *Text) outcome(o domain.Outcome) string {
	s := t.out.String(string(o))
	if c, ok := t.palette[o]; ok {
		s = s.Foreground(c)
	}
	if o == domain.OutcomeFailed {
		s = s.Bold()
	}
	return s.String()
}

// Report writes: index, case name, outcome, exit code, duration, configuration.
func (t *Text) Report(ctx context.Context, r domain.RunResult) error {
	detail := fmt.Sprintf("exit %d, %s", r.ExitCode, r.Duration.Round(time.Millisecond))
	if r.Outcome == domain.OutcomeSkipped {
		detail = r.Error
	}
	_, err := fmt.Fprintf(t.out, "#%d %s %s (%s) %s\n", r.Index, r.Case, t.outcome(r.Outcome), detail, r.Config)
	return err
}

// Summarize writes the closing line.
func (t *Text) Summarize(ctx context.Context, s domain.Summary) error {
	state := t.out.String(string(s.State)).Bold()
	_, err := fmt.Fprintf(t.out,
		"sweep %s %s: %d succeeded, %d failed, %d skipped, %d interrupted in %s (next index %d/%d",
		s.Sweep, state, s.Succeeded, s.Failed, s.Skipped, s.Interrupted,
		s.Elapsed.Round(time.Millisecond), s.NextIndex, s.Total,
	)
	if err != nil {
		return err
	}
	if s.Dispatched() > 0 {
		_, err = fmt.Fprintf(t.out, ", mean run %s ± %s", s.MeanRun.Round(time.Millisecond), s.StdDevRun.Round(time.Millisecond))
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(t.out, ")")
	return err
}
