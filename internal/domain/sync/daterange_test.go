package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDateRange(t *testing.T) {
	t.Run("normalizes to midnight", func(t *testing.T) {
		r, err := NewDateRange(
			time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
			time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		assert.Equal(t, day(2025, 3, 1), r.Start)
		assert.Equal(t, day(2025, 3, 5), r.End)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NewDateRange(day(2025, 3, 5), day(2025, 3, 1))
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("single day is valid", func(t *testing.T) {
		r, err := NewDateRange(day(2025, 3, 1), day(2025, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days())
	})
}

func TestSplitDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		maxDays  int
		expected int
	}{
		{"30 days into weeks", day(2025, 1, 1), day(2025, 1, 30), 7, 5},
		{"exact multiple", day(2025, 1, 1), day(2025, 1, 14), 7, 2},
		{"shorter than max", day(2025, 1, 1), day(2025, 1, 3), 7, 1},
		{"single day units", day(2025, 1, 1), day(2025, 1, 4), 1, 4},
		{"one day range", day(2025, 1, 1), day(2025, 1, 1), 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DateRange{Start: tt.start, End: tt.end}
			parts := SplitDays(r, tt.maxDays)
			require.Len(t, parts, tt.expected)

			// Parts must cover the range exactly, in order, with no
			// gaps or overlaps.
			assert.Equal(t, r.Start, parts[0].Start)
			assert.Equal(t, r.End, parts[len(parts)-1].End)
			totalDays := 0
			for i, p := range parts {
				assert.False(t, p.End.Before(p.Start))
				assert.LessOrEqual(t, p.Days(), tt.maxDays)
				totalDays += p.Days()
				if i > 0 {
					assert.Equal(t, parts[i-1].End.AddDate(0, 0, 1), p.Start,
						"part %d must start the day after part %d ends", i, i-1)
				}
			}
			assert.Equal(t, r.Days(), totalDays)
		})
	}
}

func TestSplitWeeks(t *testing.T) {
	r := DateRange{Start: day(2025, 1, 1), End: day(2025, 3, 31)}
	parts := SplitWeeks(r)
	for _, p := range parts {
		assert.LessOrEqual(t, p.Days(), 7)
	}
	assert.Equal(t, r.Start, parts[0].Start)
	assert.Equal(t, r.End, parts[len(parts)-1].End)
}

func TestDateRangeDays(t *testing.T) {
	assert.Equal(t, 7, DateRange{Start: day(2025, 5, 1), End: day(2025, 5, 7)}.Days())
	assert.Equal(t, 1, DateRange{Start: day(2025, 5, 1), End: day(2025, 5, 1)}.Days())
	assert.Equal(t, 31, DateRange{Start: day(2025, 1, 1), End: day(2025, 1, 31)}.Days())
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: day(2025, 5, 1), End: day(2025, 5, 7)}
	assert.True(t, r.Contains(day(2025, 5, 1)))
	assert.True(t, r.Contains(day(2025, 5, 7)))
	assert.True(t, r.Contains(time.Date(2025, 5, 3, 15, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(day(2025, 4, 30)))
	assert.False(t, r.Contains(day(2025, 5, 8)))
}
