package journal

import "time"

// Status represents the lifecycle of a recorded extraction run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Run is one extraction run persisted in the journal. Only run metadata is
// stored; the extracted data itself lives exclusively in the CSV files.
type Run struct {
	ID           string
	Status       Status
	FiltersJSON  string
	StartPage    int
	EndPage      int
	PagesDone    int
	RowsWritten  int64
	RowsSkipped  int64
	OutputsJSON  string
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
