package sync

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for window boundaries.
const DateFormat = "2006-01-02"

// DateRange is an inclusive, date-granular window. Start and End are
// midnight timestamps in the service timezone.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from midnight-normalized bounds.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start = Midnight(start)
	end = Midnight(end)
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidTimeRange, end.Format(DateFormat), start.Format(DateFormat))
	}
	return DateRange{Start: start, End: end}, nil
}

// ParseDateRange parses wire-format bounds into a range in the given
// location.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	s, err := time.ParseInLocation(DateFormat, start, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidTimeRange, start)
	}
	e, err := time.ParseInLocation(DateFormat, end, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidTimeRange, end)
	}
	return NewDateRange(s, e)
}

// Midnight truncates a timestamp to midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	days := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// Contains reports whether the day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	day = Midnight(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

// String formats the range as "sdate ~ edate".
func (r DateRange) String() string {
	return r.Start.Format(DateFormat) + " ~ " + r.End.Format(DateFormat)
}

// SplitDays splits the range into contiguous, non-overlapping
// sub-ranges of at most maxDays days that cover it exactly.
func SplitDays(r DateRange, maxDays int) []DateRange {
	if maxDays < 1 {
		maxDays = 1
	}
	var parts []DateRange
	for start := r.Start; !start.After(r.End); {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(r.End) {
			end = r.End
		}
		parts = append(parts, DateRange{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return parts
}

// SplitWeeks splits the range into sub-ranges of at most seven days.
func SplitWeeks(r DateRange) []DateRange {
	return SplitDays(r, 7)
}
