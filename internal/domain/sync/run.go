package sync

import (
	"time"

	"github.com/google/uuid"
)

// RunType classifies how a sync run chose its window.
type RunType string

const (
	RunTypeFull             RunType = "full"
	RunTypeIncremental      RunType = "incremental"
	RunTypeRecent           RunType = "recent"
	RunTypeYearly           RunType = "yearly"
	RunTypeWeekly           RunType = "weekly"
	RunTypeSmartIncremental RunType = "smart_incremental"
	RunTypeWeeklyValidation RunType = "weekly_validation"
	RunTypeRetryPeriod      RunType = "retry_period"
)

// Valid reports whether the run type is one of the known values.
func (t RunType) Valid() bool {
	switch t {
	case RunTypeFull, RunTypeIncremental, RunTypeRecent, RunTypeYearly,
		RunTypeWeekly, RunTypeSmartIncremental, RunTypeWeeklyValidation,
		RunTypeRetryPeriod:
		return true
	}
	return false
}

// RunStatus is the lifecycle status of a sync run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the audit record of one sync execution.
type Run struct {
	// ID identifies the run
	ID uuid.UUID

	// Type is how the window was chosen
	Type RunType

	// Window is the resolved date window
	Window DateRange

	// Status is the current lifecycle status
	Status RunStatus

	// TotalCount is the number of orders written
	TotalCount int

	// SkippedUnits is the number of one-day units abandoned after
	// progressive degradation
	SkippedUnits int

	// StartedAt is when the run began
	StartedAt time.Time

	// CompletedAt is when the run finished, nil while running
	CompletedAt *time.Time

	// ErrorMessage carries the failure reason for failed runs
	ErrorMessage string
}

// NewRun creates a running audit record for the given window.
func NewRun(typ RunType, window DateRange, now time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		Type:      typ,
		Window:    window,
		Status:    RunStatusRunning,
		StartedAt: now,
	}
}

// Complete finalizes the run. The status is completed when no units
// were skipped, failed when nothing succeeded at all, and partial
// otherwise.
func (r *Run) Complete(totalSaved, skippedUnits, succeededRanges int, now time.Time) {
	r.TotalCount = totalSaved
	r.SkippedUnits = skippedUnits
	r.CompletedAt = &now
	switch {
	case skippedUnits == 0:
		r.Status = RunStatusCompleted
	case succeededRanges == 0:
		r.Status = RunStatusFailed
	default:
		r.Status = RunStatusPartial
	}
}

// Fail marks the run as failed with the given reason.
func (r *Run) Fail(err error, now time.Time) {
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// IsFinished reports whether the run reached a terminal status.
func (r *Run) IsFinished() bool {
	return r.Status != RunStatusRunning
}
