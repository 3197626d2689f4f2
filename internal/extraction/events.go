package extraction

import (
	"fmt"
	"time"
)

// State is the orchestrator lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// PageProgress is emitted after each processed page.
type PageProgress struct {
	Page       int
	TotalPages int // zero when the API gave no hint and no end page is set
	Fetched    int
	Accepted   int
	TotalRows  int64
	Elapsed    time.Duration
	ETA        time.Duration
	HasETA     bool
}

// Result is the terminal event for one run.
type Result struct {
	RunID     string
	State     State
	Pages     int
	Rows      int64
	Skipped   int64
	Outputs   []string
	Elapsed   time.Duration
	ErrorKind string
	Err       error
}

// Sink receives progress and terminal events from a run. Implementations
// must be cheap; they are called from the extraction loop.
type Sink interface {
	PageProcessed(progress PageProgress)
	CheckpointSaved(throughPage int, rows int64, paths []string)
	RunFinished(result Result)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) PageProcessed(PageProgress) {}

func (NopSink) CheckpointSaved(int, int64, []string) {}

func (NopSink) RunFinished(Result) {}

// FormatETA renders a duration as mm:ss or hh:mm:ss, "?" when unknown.
func FormatETA(eta time.Duration, known bool) string {
	if !known || eta < 0 {
		return "?"
	}
	total := int(eta.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
