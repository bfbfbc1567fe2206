package domain

import "time"

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSucceeded   Outcome = "succeeded"   // Exit status 0
	OutcomeFailed      Outcome = "failed"      // Non-zero exit, or the process never started
	OutcomeSkipped     Outcome = "skipped"     // Not dispatched (unresolved selector under the skip policy)
	OutcomeInterrupted Outcome = "interrupted" // Terminated because the sweep was cancelled
)

// RunResult is the outcome of dispatching one configuration.
// It is handed to reporters and hooks and not retained afterwards.
type RunResult struct {
	Index     int           `json:"index"`
	Case      string        `json:"case"`
	Config    Configuration `json:"config"`
	Outcome   Outcome       `json:"outcome"`
	ExitCode  int           `json:"exit_code"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the run counts as a failure for the stop-on-failure policy.
func (r RunResult) Failed() bool { return r.Outcome == OutcomeFailed }

// Summary aggregates the results of one driver invocation.
type Summary struct {
	Sweep       string        `json:"sweep"`
	SweepID     string        `json:"sweep_id"`
	State       SweepState    `json:"state"`
	Total       int           `json:"total"`
	StartIndex  int           `json:"start_index"`
	NextIndex   int           `json:"next_index"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Interrupted int           `json:"interrupted"`
	Elapsed     time.Duration `json:"elapsed_ns"`

	// Duration statistics over dispatched runs.
	MeanRun   time.Duration `json:"mean_run_ns"`
	StdDevRun time.Duration `json:"stddev_run_ns"`
}

// Dispatched returns the number of runs handed to the external program.
func (s Summary) Dispatched() int { return s.Succeeded + s.Failed + s.Interrupted }
