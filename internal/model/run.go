package model

import "time"

// RunStatus is the terminal state of a processing run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunDegraded  RunStatus = "degraded"
	RunCancelled RunStatus = "cancelled"
)

// RunSummary describes a finished processing run.
type RunSummary struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	ID          string
	ArchivePath string
	Status      RunStatus
	Message     string
	Photos      int
	Skipped     int
	Records     int
}
