package sync

import (
	"fmt"
	"time"
)

const (
	// MaxFullSyncDays bounds explicit full-sync windows.
	MaxFullSyncDays = 7

	// DefaultRecentWeeks is the trailing window of a recent sync.
	DefaultRecentWeeks = 3

	// DefaultWeeklyMonths is the trailing window of a weekly sync.
	DefaultWeeklyMonths = 5

	// DefaultYearlyMonths is the trailing window of a yearly sync.
	DefaultYearlyMonths = 12

	// SmartOverlapDays is how far a smart sync reaches back before the
	// end of the last completed run to re-cover late status changes.
	SmartOverlapDays = 2
)

// WindowOptions carries caller-supplied window parameters.
type WindowOptions struct {
	// Explicit is the requested window, for run types that accept one
	Explicit *DateRange

	// Weeks overrides the trailing-weeks span of a recent sync
	Weeks int

	// Months overrides the trailing-months span of a weekly sync
	Months int
}

// ResolveWindow maps a run type and options to the date window the run
// will cover. lastCompleted is the most recent fully completed run and
// is only consulted for smart-incremental syncs.
func ResolveWindow(typ RunType, opts WindowOptions, now time.Time, lastCompleted *Run) (DateRange, error) {
	today := Midnight(now)

	trailing := func(days int) DateRange {
		return DateRange{Start: today.AddDate(0, 0, -(days - 1)), End: today}
	}

	switch typ {
	case RunTypeFull:
		if opts.Explicit == nil {
			return DateRange{}, ErrWindowRequired
		}
		if opts.Explicit.Days() > MaxFullSyncDays {
			return DateRange{}, fmt.Errorf("%w: full sync window exceeds %d days",
				ErrInvalidTimeRange, MaxFullSyncDays)
		}
		return *opts.Explicit, nil

	case RunTypeIncremental:
		return trailing(7), nil

	case RunTypeRecent:
		weeks := opts.Weeks
		if weeks <= 0 {
			weeks = DefaultRecentWeeks
		}
		return trailing(weeks * 7), nil

	case RunTypeYearly:
		if opts.Explicit != nil {
			return *opts.Explicit, nil
		}
		return DateRange{Start: today.AddDate(0, -DefaultYearlyMonths, 0), End: today}, nil

	case RunTypeWeekly:
		if opts.Explicit != nil {
			return *opts.Explicit, nil
		}
		months := opts.Months
		if months <= 0 {
			months = DefaultWeeklyMonths
		}
		return DateRange{Start: today.AddDate(0, -months, 0), End: today}, nil

	case RunTypeSmartIncremental:
		if lastCompleted == nil {
			return trailing(7), nil
		}
		start := lastCompleted.Window.End.AddDate(0, 0, -SmartOverlapDays)
		if start.After(today) {
			start = today
		}
		return DateRange{Start: start, End: today}, nil

	case RunTypeWeeklyValidation:
		return DateRange{Start: today.AddDate(0, -DefaultWeeklyMonths, 0), End: today}, nil

	case RunTypeRetryPeriod:
		if opts.Explicit == nil {
			return DateRange{}, ErrWindowRequired
		}
		return *opts.Explicit, nil
	}

	return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownRunType, typ)
}

// PlanRanges decides how the window is cut into top-level fetch
// sub-ranges. Short run types fetch the window directly; long windows
// are walked week by week. Retry-period runs are planned by the
// degradation loop itself and get a single range here.
func PlanRanges(typ RunType, window DateRange) []DateRange {
	switch typ {
	case RunTypeFull, RunTypeIncremental, RunTypeRetryPeriod:
		return []DateRange{window}
	case RunTypeSmartIncremental:
		if window.Days() <= 7 {
			return []DateRange{window}
		}
		return SplitWeeks(window)
	default:
		return SplitWeeks(window)
	}
}
