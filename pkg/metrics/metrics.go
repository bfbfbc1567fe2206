// Package metrics exposes sweep progress as Prometheus collectors fed by
// the driver's lifecycle hooks.
package metrics

import (
	"context"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var states = []domain.SweepState{
	domain.StateIdle,
	domain.StateRunning,
	domain.StateCompleted,
	domain.StateAborted,
}

// Collectors holds the sweep metrics.
type Collectors struct {
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	State       *prometheus.GaugeVec
	NextIndex   *prometheus.GaugeVec
	Total       *prometheus.GaugeVec
}

// New creates the collectors without registering them.
func New() *Collectors {
	return &Collectors{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sflsweep_runs_total",
				Help: "Total number of reported runs by outcome",
			},
			[]string{"sweep", "outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sflsweep_run_duration_seconds",
				Help: "Wall-clock duration of dispatched runs",
				// Runs range from seconds (smoke tests) to days (full fine-tuning).
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"sweep"},
		),
		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sflsweep_sweep_state",
				Help: "1 for the current state of the sweep, 0 for the others",
			},
			[]string{"sweep", "state"},
		),
		NextIndex: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sflsweep_next_index",
				Help: "Index of the first configuration without a reported result",
			},
			[]string{"sweep"},
		),
		Total: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sflsweep_configurations",
				Help: "Number of configurations in the sweep",
			},
			[]string{"sweep"},
		),
	}
}

// Register adds every collector to reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.Runs, c.RunDuration, c.State, c.NextIndex, c.Total} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collectors) setState(sweep string, current domain.SweepState) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		c.State.WithLabelValues(sweep, string(s)).Set(v)
	}
}

// Hooks returns lifecycle hooks that keep the collectors current.
func (c *Collectors) Hooks() domain.Hooks {
	return domain.Hooks{
		OnSweepStart: func(ctx context.Context, e *domain.SweepEvent) {
			c.setState(e.Sweep, e.State)
			c.Total.WithLabelValues(e.Sweep).Set(float64(e.Total))
			c.NextIndex.WithLabelValues(e.Sweep).Set(float64(e.Progress.NextIndex))
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Result == nil {
				return
			}
			c.Runs.WithLabelValues(e.Sweep, string(e.Result.Outcome)).Inc()
			if e.Result.Outcome != domain.OutcomeSkipped {
				c.RunDuration.WithLabelValues(e.Sweep).Observe(e.Result.Duration.Seconds())
			}
			if e.Result.Outcome != domain.OutcomeInterrupted {
				c.NextIndex.WithLabelValues(e.Sweep).Set(float64(e.Index + 1))
			}
		},
		OnSweepFinish: func(ctx context.Context, e *domain.SweepEvent) {
			c.setState(e.Sweep, e.State)
			c.NextIndex.WithLabelValues(e.Sweep).Set(float64(e.Progress.NextIndex))
		},
	}
}
