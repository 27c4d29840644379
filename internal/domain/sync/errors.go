package sync

import "errors"

var (
	// ErrAlreadyRunning is returned when a sync run is requested while
	// another one is still in flight
	ErrAlreadyRunning = errors.New("a sync run is already in progress")

	// ErrInvalidTimeRange is returned for malformed or oversized windows
	ErrInvalidTimeRange = errors.New("invalid sync time range")

	// ErrWindowRequired is returned when a run type needs an explicit
	// window and none was given
	ErrWindowRequired = errors.New("sync window is required for this run type")

	// ErrUnknownRunType is returned for unrecognized run types
	ErrUnknownRunType = errors.New("unknown sync run type")

	// ErrRunNotFound is returned when a sync run is not found
	ErrRunNotFound = errors.New("sync run not found")
)
