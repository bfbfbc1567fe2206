package domain

import "time"

// SweepState is the lifecycle state of a sweep driver.
type SweepState string

const (
	StateIdle      SweepState = "idle"      // Constructed, not started
	StateRunning   SweepState = "running"   // Dispatching configurations
	StateCompleted SweepState = "completed" // Sequence exhausted
	StateAborted   SweepState = "aborted"   // Stopped early by policy, fatal error or cancellation
)

// Terminal reports whether no further transitions can happen.
func (s SweepState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Progress is a resumable snapshot of a sweep.
// NextIndex is the index of the first configuration that has not been
// reported yet; re-running from NextIndex never repeats a finished run.
type Progress struct {
	Sweep     string     `json:"sweep"`
	SweepID   string     `json:"sweep_id"`
	State     SweepState `json:"state"`
	Total     int        `json:"total"`
	NextIndex int        `json:"next_index"`
	LastCase  string     `json:"last_case,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
