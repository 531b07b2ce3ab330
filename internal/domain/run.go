package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an update run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusDryRun    RunStatus = "DRY_RUN"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	return s != RunStatusRunning
}

// RunSource records where the data for a run came from.
type RunSource struct {
	URL  string
	Hash string
	Size int64
}

// RunCounts holds the per-operation totals for a completed run.
type RunCounts struct {
	Added   int
	Updated int
	Deleted int
}

// UpdateRun is the persisted bookkeeping record for one apply or
// validation attempt.
type UpdateRun struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      RunStatus
	Source      RunSource
	Counts      RunCounts
	ErrorMsg    string
}

// ChangelogEntry is one applied row-level mutation, linked to its run.
type ChangelogEntry struct {
	ID         int64
	Table      string
	EntityID   string
	Operation  Operation
	ChangedAt  time.Time
	RunID      uuid.UUID
	OldValues  Row
	NewValues  Row
}

// UpdateResult is the outcome of applying (or dry-running) one change set.
type UpdateResult struct {
	RunID            uuid.UUID
	Success          bool
	DryRun           bool
	RecordsProcessed int
	RecordsApplied   int
	RecordsFailed    int
	ProcessingTime   time.Duration
	ErrorMessages    []string
	Summary          map[string]OperationSummary
}

// Counts derives the run-level added/updated/deleted totals from the
// per-table summary.
func (r *UpdateResult) Counts() RunCounts {
	var counts RunCounts
	for _, summary := range r.Summary {
		counts.Added += summary[OpInsert]
		counts.Updated += summary[OpUpdate]
		counts.Deleted += summary[OpDelete]
	}
	return counts
}
