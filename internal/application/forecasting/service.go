// Package forecasting loads forecast inputs from the stores and runs
// the revenue forecast computation.
package forecasting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/domain/campaign"
	"github.com/orderpulse/backend/internal/domain/commerce"
	"github.com/orderpulse/backend/internal/domain/forecast"
)

const (
	maxHorizonDays  = 90
	maxLookbackDays = 365
)

// Config holds forecast defaults.
type Config struct {
	// LookbackDays is the history window length
	LookbackDays int

	// HorizonDays is the default forecast length
	HorizonDays int
}

// Options are the per-request forecast parameters.
type Options struct {
	// LookbackDays overrides the configured history window when positive
	LookbackDays int

	// HorizonDays overrides the configured horizon when positive
	HorizonDays int

	// UseCampaigns enables the upcoming-campaign revenue overlay
	UseCampaigns bool

	// IncludeInternal counts internal verification orders in the
	// revenue series. They are excluded by default.
	IncludeInternal bool
}

// Service produces revenue forecasts.
type Service struct {
	cfg       Config
	orders    commerce.OrderRepository
	campaigns campaign.Repository
	logger    *zap.Logger
	loc       *time.Location

	now func() time.Time
}

// NewService creates a forecast service.
func NewService(cfg Config, orders commerce.OrderRepository, campaigns campaign.Repository, loc *time.Location, logger *zap.Logger) *Service {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = forecast.DefaultLookbackDays
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = forecast.DefaultHorizonDays
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		cfg:       cfg,
		orders:    orders,
		campaigns: campaigns,
		logger:    logger.Named("forecasting"),
		loc:       loc,
	}
	s.now = func() time.Time { return time.Now().In(loc) }
	return s
}

// Forecast loads the revenue history and campaign sets and computes the
// forecast. Internal verification orders are left out of the series
// unless explicitly requested.
func (s *Service) Forecast(ctx context.Context, opts Options) (*forecast.Result, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.HorizonDays
	}
	if horizon > maxHorizonDays {
		horizon = maxHorizonDays
	}
	lookback := opts.LookbackDays
	if lookback <= 0 {
		lookback = s.cfg.LookbackDays
	}
	if lookback > maxLookbackDays {
		lookback = maxLookbackDays
	}

	history, err := s.orders.DailyRevenue(ctx, commerce.RevenueQuery{
		From:            today.AddDate(0, 0, -lookback),
		To:              today,
		ExcludeInternal: !opts.IncludeInternal,
	})
	if err != nil {
		return nil, err
	}

	past, err := s.campaigns.EndedBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.campaigns.UpcomingFrom(ctx, today)
	if err != nil {
		return nil, err
	}

	result := forecast.Compute(forecast.Input{
		History:           history,
		PastCampaigns:     past,
		UpcomingCampaigns: upcoming,
		HorizonDays:       horizon,
		Today:             today,
		UseCampaigns:      opts.UseCampaigns,
	})

	s.logger.Debug("Forecast computed",
		zap.Int("history_days", result.HistoryDays),
		zap.Int("lookback_days", lookback),
		zap.Int("horizon_days", horizon),
		zap.Bool("use_campaigns", opts.UseCampaigns),
		zap.Bool("insufficient_data", result.InsufficientData),
	)
	return result, nil
}
