package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSweepStart  EventType = "sweep_start"
	EventRunStart    EventType = "run_start"
	EventRunFinish   EventType = "run_finish"
	EventSweepFinish EventType = "sweep_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Sweep     string    `json:"sweep"`
	SweepID   string    `json:"sweep_id"`
}

// SweepEvent marks the start or end of a sweep.
type SweepEvent struct {
	EventBase
	State    SweepState `json:"state"`
	Total    int        `json:"total"`
	Progress Progress   `json:"progress"`
}

// RunEvent marks the start or end of one run.
// Result is only set on EventRunFinish.
type RunEvent struct {
	EventBase
	Index  int           `json:"index"`
	Case   string        `json:"case"`
	Config Configuration `json:"config"`
	Result *RunResult    `json:"result,omitempty"`
}

// Hooks defines callbacks for sweep observability.
// Every field is optional.
type Hooks struct {
	OnSweepStart  func(context.Context, *SweepEvent)
	OnRunStart    func(context.Context, *RunEvent)
	OnRunFinish   func(context.Context, *RunEvent)
	OnSweepFinish func(context.Context, *SweepEvent)
}

// CombineHooks returns Hooks that call each of hooks in order.
func CombineHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnSweepStart: func(ctx context.Context, e *SweepEvent) {
			for _, h := range hooks {
				if h.OnSweepStart != nil {
					h.OnSweepStart(ctx, e)
				}
			}
		},
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnRunFinish: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunFinish != nil {
					h.OnRunFinish(ctx, e)
				}
			}
		},
		OnSweepFinish: func(ctx context.Context, e *SweepEvent) {
			for _, h := range hooks {
				if h.OnSweepFinish != nil {
					h.OnSweepFinish(ctx, e)
				}
			}
		},
	}
}
