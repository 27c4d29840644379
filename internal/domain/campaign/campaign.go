package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of an influencer campaign.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Campaign is an influencer marketing campaign. Campaign management
// lives elsewhere; this service only reads campaigns to adjust and
// overlay revenue forecasts.
type Campaign struct {
	// ID identifies the campaign
	ID int64

	// Name is the campaign title
	Name string

	// InfluencerName is who ran the campaign
	InfluencerName string

	// StartDate and EndDate bound the campaign window (inclusive)
	StartDate time.Time
	EndDate   time.Time

	// ExpectedRevenue is the planned revenue in KRW
	ExpectedRevenue int64

	// ActualRevenue is the measured revenue during the window in KRW
	ActualRevenue int64

	// ManualRevenue is an operator-corrected actual revenue figure,
	// nil when no correction was entered
	ManualRevenue *int64

	// Status is the campaign lifecycle status
	Status Status

	// Notes is free-form operator commentary
	Notes string
}

// DurationDays is the inclusive day count of the campaign window.
func (c *Campaign) DurationDays() int {
	days := int(c.EndDate.Sub(c.StartDate).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Covers reports whether the day falls inside the campaign window.
func (c *Campaign) Covers(day time.Time) bool {
	return !day.Before(c.StartDate) && !day.After(c.EndDate)
}

// Ratio is the share of the campaign window's revenue attributed to
// the campaign itself: manual corrected revenue over measured revenue,
// capped at 1. Campaigns without a manual figure attribute everything.
func (c *Campaign) Ratio() float64 {
	if c.ManualRevenue == nil || c.ActualRevenue <= 0 {
		return 1
	}
	ratio := decimal.NewFromInt(*c.ManualRevenue).
		Div(decimal.NewFromInt(c.ActualRevenue))
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	f, _ := ratio.Float64()
	return f
}

// DailyExpectedRevenue spreads the expected revenue evenly over the
// campaign window.
func (c *Campaign) DailyExpectedRevenue() int64 {
	share := decimal.NewFromInt(c.ExpectedRevenue).
		Div(decimal.NewFromInt(int64(c.DurationDays()))).
		Round(0)
	return share.IntPart()
}
