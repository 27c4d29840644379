package campaign

import (
	"context"
	"time"
)

// Repository reads campaign records. This service never writes them.
type Repository interface {
	// EndedBefore returns campaigns whose window ended before the given
	// day, oldest first. Cancelled campaigns are left out; any other
	// status counts, since a finished campaign may still be marked
	// planned or active.
	EndedBefore(ctx context.Context, day time.Time) ([]Campaign, error)

	// UpcomingFrom returns planned and active campaigns whose window
	// ends on or after the given day, soonest first.
	UpcomingFrom(ctx context.Context, day time.Time) ([]Campaign, error)
}
