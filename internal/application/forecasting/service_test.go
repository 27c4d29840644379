package forecasting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/domain/campaign"
	"github.com/orderpulse/backend/internal/domain/commerce"
)

var testNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

type stubOrderRepo struct {
	history   []commerce.DailyRevenue
	lastQuery commerce.RevenueQuery
}

func (r *stubOrderRepo) UpsertBatch(ctx context.Context, orders []commerce.Order) error {
	return nil
}

func (r *stubOrderRepo) DailyRevenue(ctx context.Context, q commerce.RevenueQuery) ([]commerce.DailyRevenue, error) {
	r.lastQuery = q
	return r.history, nil
}

func (r *stubOrderRepo) Stats(ctx context.Context) (*commerce.OrderStats, error) {
	return &commerce.OrderStats{}, nil
}

type stubCampaignRepo struct {
	past     []campaign.Campaign
	upcoming []campaign.Campaign
}

func (r *stubCampaignRepo) EndedBefore(ctx context.Context, day time.Time) ([]campaign.Campaign, error) {
	return r.past, nil
}

func (r *stubCampaignRepo) UpcomingFrom(ctx context.Context, day time.Time) ([]campaign.Campaign, error) {
	return r.upcoming, nil
}

func flatHistory(days int, revenue int64) []commerce.DailyRevenue {
	history := make([]commerce.DailyRevenue, days)
	for i := 0; i < days; i++ {
		history[i] = commerce.DailyRevenue{
			Date:       time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i-days),
			Revenue:    revenue,
			OrderCount: 5,
		}
	}
	return history
}

func newTestService(orders *stubOrderRepo, campaigns *stubCampaignRepo) *Service {
	s := NewService(Config{LookbackDays: 90, HorizonDays: 30}, orders, campaigns, time.UTC, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func TestForecastFlatSeries(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(30, 100000)}
	s := newTestService(orders, &stubCampaignRepo{})

	result, err := s.Forecast(context.Background(), Options{})
	require.NoError(t, err)

	assert.False(t, result.InsufficientData)
	assert.Equal(t, 30, result.HistoryDays)
	require.Len(t, result.Forecast, 30)
	require.NotNil(t, result.Summary)
	assert.Equal(t, int64(3000000), result.Summary.ProjectedMonthlyRevenue)
	assert.Equal(t, "flat", result.Summary.TrendDirection)

	// History window ends today and excludes internal orders.
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), orders.lastQuery.To)
	assert.Equal(t, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), orders.lastQuery.From)
	assert.True(t, orders.lastQuery.ExcludeInternal)
}

func TestForecastInsufficientHistory(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(3, 100000)}
	s := newTestService(orders, &stubCampaignRepo{})

	result, err := s.Forecast(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, result.InsufficientData)
	assert.Equal(t, 3, result.HistoryDays)
	assert.Empty(t, result.Forecast)
	assert.Nil(t, result.Summary)
}

func TestForecastCampaignOverlay(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(30, 100000)}
	campaigns := &stubCampaignRepo{
		upcoming: []campaign.Campaign{{
			Name:            "summer launch",
			StartDate:       time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC),
			ExpectedRevenue: 500000,
			Status:          campaign.StatusPlanned,
		}},
	}
	s := newTestService(orders, campaigns)

	result, err := s.Forecast(context.Background(), Options{UseCampaigns: true})
	require.NoError(t, err)

	// Five campaign days at 100000 expected each.
	var overlay int64
	for _, p := range result.Forecast {
		overlay += p.CampaignRevenue
	}
	assert.Equal(t, int64(500000), overlay)
	assert.Equal(t, int64(3500000), result.Summary.ProjectedWithCampaigns)

	require.NotNil(t, result.Campaigns)
	require.Len(t, result.Campaigns.Upcoming, 1)
	assert.Equal(t, int64(500000), result.Campaigns.TotalUpcomingRevenue)

	// Overlay off: same campaigns listed, none applied.
	result, err = s.Forecast(context.Background(), Options{UseCampaigns: false})
	require.NoError(t, err)
	assert.Equal(t, result.Summary.ProjectedMonthlyRevenue, result.Summary.ProjectedWithCampaigns)
}

func TestForecastLookbackWindow(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(30, 100000)}
	s := newTestService(orders, &stubCampaignRepo{})

	// A requested window overrides the configured one.
	_, err := s.Forecast(context.Background(), Options{LookbackDays: 10})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), orders.lastQuery.From)

	// Oversized requests are clamped.
	_, err = s.Forecast(context.Background(), Options{LookbackDays: 10000})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -maxLookbackDays), orders.lastQuery.From)
}

func TestForecastLookbackDefault(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(30, 100000)}
	s := NewService(Config{}, orders, &stubCampaignRepo{}, time.UTC, zap.NewNop())
	s.now = func() time.Time { return testNow }

	_, err := s.Forecast(context.Background(), Options{})
	require.NoError(t, err)
	// Sixty days of history by default.
	assert.Equal(t, time.Date(2025, 4, 19, 0, 0, 0, 0, time.UTC), orders.lastQuery.From)
}

func TestForecastHorizonClamped(t *testing.T) {
	orders := &stubOrderRepo{history: flatHistory(30, 100000)}
	s := newTestService(orders, &stubCampaignRepo{})

	result, err := s.Forecast(context.Background(), Options{HorizonDays: 365})
	require.NoError(t, err)
	assert.Len(t, result.Forecast, maxHorizonDays)

	result, err = s.Forecast(context.Background(), Options{HorizonDays: 7})
	require.NoError(t, err)
	assert.Len(t, result.Forecast, 7)
}
