package sync

import "context"

// RunRepository persists sync run audit records.
type RunRepository interface {
	// Begin inserts the run as the single in-flight run. The insert is
	// conditional on no other run being in the running status and is
	// atomic; ErrAlreadyRunning is returned when one is.
	Begin(ctx context.Context, run *Run) error

	// Finish persists the terminal state of the run.
	Finish(ctx context.Context, run *Run) error

	// Running returns the in-flight run, or nil when there is none.
	Running(ctx context.Context) (*Run, error)

	// LastFinished returns the most recently finished run, or nil.
	LastFinished(ctx context.Context) (*Run, error)

	// LastCompleted returns the most recent fully completed run, or nil.
	LastCompleted(ctx context.Context) (*Run, error)

	// History returns finished and running runs, newest first.
	History(ctx context.Context, page, pageSize int) ([]Run, int64, error)
}
