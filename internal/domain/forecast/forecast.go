// Package forecast computes campaign-aware revenue forecasts from a
// daily revenue series. The computation is pure; loading inputs is the
// application layer's job.
package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderpulse/backend/internal/domain/campaign"
	"github.com/orderpulse/backend/internal/domain/commerce"
)

const (
	// MinHistoryDays is the minimum history length for a forecast.
	MinHistoryDays = 7

	// DefaultLookbackDays is the default history window.
	DefaultLookbackDays = 60

	// DefaultHorizonDays is the default forecast horizon.
	DefaultHorizonDays = 30

	// ConfidenceDecayPerDay shrinks confidence per forecast day.
	ConfidenceDecayPerDay = 0.02

	// ConfidenceFloor is the minimum reported confidence.
	ConfidenceFloor = 0.5
)

// Input carries everything a forecast computation needs.
type Input struct {
	// History is the daily revenue series, oldest first
	History []commerce.DailyRevenue

	// PastCampaigns adjust the history: revenue earned during their
	// windows is partially attributed to the campaign, not the baseline
	PastCampaigns []campaign.Campaign

	// UpcomingCampaigns overlay expected revenue onto the forecast
	UpcomingCampaigns []campaign.Campaign

	// HorizonDays is how many days to forecast
	HorizonDays int

	// Today anchors the forecast, midnight in the service timezone
	Today time.Time

	// UseCampaigns enables the upcoming campaign overlay
	UseCampaigns bool
}

// HistoryPoint is one observed day with its derived series.
type HistoryPoint struct {
	Date            string   `json:"date"`
	OrderCount      int      `json:"order_count"`
	Revenue         int64    `json:"revenue"`
	Quantity        int64    `json:"quantity"`
	MA7             *float64 `json:"ma7"`
	MA30            *float64 `json:"ma30"`
	CampaignRatio   float64  `json:"campaign_ratio"`
	AdjustedRevenue int64    `json:"adjusted_revenue"`
	IsCampaignDay   bool     `json:"is_campaign_day"`
}

// ForecastPoint is one predicted day.
type ForecastPoint struct {
	Date            string   `json:"date"`
	BaselineRevenue int64    `json:"baseline_revenue"`
	CampaignRevenue int64    `json:"campaign_revenue"`
	PredictedRevenue int64   `json:"predicted_revenue"`
	Confidence      float64  `json:"confidence"`
	HasCampaign     bool     `json:"has_campaign"`
	Campaigns       []string `json:"campaigns,omitempty"`
}

// Summary aggregates the forecast headline figures.
type Summary struct {
	AvgDailyRevenue          int64   `json:"avg_daily_revenue"`
	AvgDailyRevenueRaw       int64   `json:"avg_daily_revenue_raw"`
	ProjectedMonthlyRevenue  int64   `json:"projected_monthly_revenue"`
	ProjectedWithCampaigns   int64   `json:"projected_with_campaigns"`
	TrendDirection           string  `json:"trend_direction"`
	TrendPercentage          float64 `json:"trend_percentage"`
}

// PastCampaignInfo reports a history-adjusting campaign.
type PastCampaignInfo struct {
	Name           string  `json:"name"`
	InfluencerName string  `json:"influencer_name"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Ratio          float64 `json:"ratio"`
}

// UpcomingCampaignInfo reports an overlay campaign.
type UpcomingCampaignInfo struct {
	Name            string `json:"name"`
	InfluencerName  string `json:"influencer_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	ExpectedRevenue int64  `json:"expected_revenue"`
}

// CampaignMeta summarizes campaign influence on the forecast.
type CampaignMeta struct {
	ExcludedDays         int                    `json:"excluded_days"`
	Past                 []PastCampaignInfo     `json:"past"`
	Upcoming             []UpcomingCampaignInfo `json:"upcoming"`
	TotalUpcomingRevenue int64                  `json:"total_upcoming_revenue"`
}

// Result is a complete forecast response.
type Result struct {
	InsufficientData bool            `json:"insufficient_data"`
	HistoryDays      int             `json:"history_days"`
	Historical       []HistoryPoint  `json:"historical"`
	Forecast         []ForecastPoint `json:"forecast"`
	Summary          *Summary        `json:"summary,omitempty"`
	Campaigns        *CampaignMeta   `json:"campaigns,omitempty"`
}

// Compute produces the forecast for the given input. Fewer than
// MinHistoryDays observed days yields an insufficient-data result with
// an empty forecast.
func Compute(in Input) *Result {
	if in.HorizonDays <= 0 {
		in.HorizonDays = DefaultHorizonDays
	}

	if len(in.History) < MinHistoryDays {
		return &Result{
			InsufficientData: true,
			HistoryDays:      len(in.History),
			Historical:       historyOnly(in.History),
			Forecast:         []ForecastPoint{},
		}
	}

	ratios := campaignRatios(in.History, in.PastCampaigns)

	adjusted := make([]float64, len(in.History))
	raw := make([]float64, len(in.History))
	for i, d := range in.History {
		raw[i] = float64(d.Revenue)
		adjusted[i] = float64(d.Revenue) * (1 - ratios[i])
	}

	slope := olsSlope(adjusted)
	mean := average(adjusted)
	rawMean := average(raw)

	ma7 := movingAverage(raw, 7)
	ma30Window := 30
	if len(raw) < ma30Window {
		ma30Window = len(raw)
	}
	ma30 := movingAverage(raw, ma30Window)

	historical := make([]HistoryPoint, len(in.History))
	excludedDays := 0
	for i, d := range in.History {
		if ratios[i] > 0 {
			excludedDays++
		}
		historical[i] = HistoryPoint{
			Date:            d.Date.Format("2006-01-02"),
			OrderCount:      d.OrderCount,
			Revenue:         d.Revenue,
			Quantity:        d.Quantity,
			MA7:             ma7[i],
			MA30:            ma30[i],
			CampaignRatio:   ratios[i],
			AdjustedRevenue: roundMoney(adjusted[i]),
			IsCampaignDay:   ratios[i] > 0,
		}
	}

	points := make([]ForecastPoint, 0, in.HorizonDays)
	var overlayTotal int64
	for i := 1; i <= in.HorizonDays; i++ {
		date := in.Today.AddDate(0, 0, i)
		baseline := mean + slope*float64(i)
		if baseline < 0 {
			baseline = 0
		}

		var overlay int64
		var names []string
		if in.UseCampaigns {
			for idx := range in.UpcomingCampaigns {
				c := &in.UpcomingCampaigns[idx]
				if c.Covers(date) {
					overlay += c.DailyExpectedRevenue()
					names = append(names, c.Name)
				}
			}
		}
		overlayTotal += overlay

		base := roundMoney(baseline)
		confidence := 1 - ConfidenceDecayPerDay*float64(i)
		if confidence < ConfidenceFloor {
			confidence = ConfidenceFloor
		}
		points = append(points, ForecastPoint{
			Date:             date.Format("2006-01-02"),
			BaselineRevenue:  base,
			CampaignRevenue:  overlay,
			PredictedRevenue: base + overlay,
			Confidence:       math.Round(confidence*100) / 100,
			HasCampaign:      overlay > 0,
			Campaigns:        names,
		})
	}

	trendPct := 0.0
	if mean > 0 {
		trendPct = math.Round(slope / mean * 100 * 30)
	}
	direction := "flat"
	switch {
	case trendPct > 0:
		direction = "up"
	case trendPct < 0:
		direction = "down"
	}

	summary := &Summary{
		AvgDailyRevenue:         roundMoney(mean),
		AvgDailyRevenueRaw:      roundMoney(rawMean),
		ProjectedMonthlyRevenue: roundMoney(mean * 30),
		ProjectedWithCampaigns:  roundMoney(mean*30) + overlayTotal,
		TrendDirection:          direction,
		TrendPercentage:         trendPct,
	}

	meta := &CampaignMeta{
		ExcludedDays: excludedDays,
		Past:         pastInfo(in.PastCampaigns),
		Upcoming:     upcomingInfo(in.UpcomingCampaigns),
	}
	for _, c := range in.UpcomingCampaigns {
		meta.TotalUpcomingRevenue += c.ExpectedRevenue
	}

	return &Result{
		HistoryDays: len(in.History),
		Historical:  historical,
		Forecast:    points,
		Summary:     summary,
		Campaigns:   meta,
	}
}

// campaignRatios computes, for each history day, the revenue share
// attributed to campaigns active that day. Overlapping campaigns sum
// and the total is capped at 1.
func campaignRatios(history []commerce.DailyRevenue, campaigns []campaign.Campaign) []float64 {
	ratios := make([]float64, len(history))
	for i, d := range history {
		total := 0.0
		for idx := range campaigns {
			c := &campaigns[idx]
			if c.Covers(d.Date) {
				total += c.Ratio()
			}
		}
		if total > 1 {
			total = 1
		}
		ratios[i] = total
	}
	return ratios
}

func historyOnly(history []commerce.DailyRevenue) []HistoryPoint {
	points := make([]HistoryPoint, len(history))
	for i, d := range history {
		points[i] = HistoryPoint{
			Date:            d.Date.Format("2006-01-02"),
			OrderCount:      d.OrderCount,
			Revenue:         d.Revenue,
			Quantity:        d.Quantity,
			AdjustedRevenue: d.Revenue,
		}
	}
	return points
}

func pastInfo(campaigns []campaign.Campaign) []PastCampaignInfo {
	info := make([]PastCampaignInfo, len(campaigns))
	for i, c := range campaigns {
		info[i] = PastCampaignInfo{
			Name:           c.Name,
			InfluencerName: c.InfluencerName,
			StartDate:      c.StartDate.Format("2006-01-02"),
			EndDate:        c.EndDate.Format("2006-01-02"),
			Ratio:          c.Ratio(),
		}
	}
	return info
}

func upcomingInfo(campaigns []campaign.Campaign) []UpcomingCampaignInfo {
	info := make([]UpcomingCampaignInfo, len(campaigns))
	for i, c := range campaigns {
		info[i] = UpcomingCampaignInfo{
			Name:            c.Name,
			InfluencerName:  c.InfluencerName,
			StartDate:       c.StartDate.Format("2006-01-02"),
			EndDate:         c.EndDate.Format("2006-01-02"),
			ExpectedRevenue: c.ExpectedRevenue,
		}
	}
	return info
}

func roundMoney(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}
