package fanout

import (
	"sync"
	"time"
)

// Stage represents a step of a single job.
type Stage string

const (
	StageChecking  Stage = "checking"
	StageDryRun    Stage = "dryrun"
	StageTransfer  Stage = "transfer"
	StageExecuting Stage = "executing"
	StageCleanup   Stage = "cleanup"
	StageDone      Stage = "done"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StageChecking:
		return "Checking Status"
	case StageDryRun:
		return "Dry Run"
	case StageTransfer:
		return "Transferring"
	case StageExecuting:
		return "Executing"
	case StageCleanup:
		return "Cleaning Up"
	case StageDone:
		return "Done"
	default:
		return string(s)
	}
}

// Event represents a progress update for one target.
type Event struct {
	TargetID  string
	Stage     Stage
	Message   string
	Outcome   *Outcome // Set only when Stage is StageDone
	IsError   bool
	Timestamp time.Time
}

// NewEvent creates a new progress event.
func NewEvent(targetID string, stage Stage, message string) Event {
	return Event{
		TargetID:  targetID,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDoneEvent creates the final event of a job carrying its outcome.
func NewDoneEvent(o Outcome) Event {
	return Event{
		TargetID:  o.TargetID,
		Stage:     StageDone,
		Message:   o.Result.String(),
		Outcome:   &o,
		IsError:   o.Result == Failed,
		Timestamp: time.Now(),
	}
}

// EventFunc receives progress events. It may be called from several
// goroutines at once and must be safe for concurrent use.
type EventFunc func(Event)

// NoOpEvents is an event callback that does nothing.
func NoOpEvents(_ Event) {}

// EventRecorder collects events for later review.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewEventRecorder creates a new event recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{
		events: make([]Event, 0),
	}
}

// Callback returns an EventFunc that records events.
func (r *EventRecorder) Callback() EventFunc {
	return func(e Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	}
}

// Events returns a copy of all recorded events.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ForTarget returns the recorded events of one target in arrival order.
func (r *EventRecorder) ForTarget(id string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.TargetID == id {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors returns true if any error events were recorded.
func (r *EventRecorder) HasErrors() bool {
	for _, e := range r.Events() {
		if e.IsError {
			return true
		}
	}
	return false
}
