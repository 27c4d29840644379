package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderpulse/backend/internal/domain/campaign"
)

func TestCampaignQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCampaignRepository(db)
	ctx := context.Background()
	today := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

	manual := int64(300000)
	models := []CampaignModel{
		{
			Name: "spring push", InfluencerName: "krbeauty",
			StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
			Status:    string(campaign.StatusCompleted),
			ActualRevenue: 600000, ManualRevenue: &manual,
		},
		{
			Name: "cancelled event", InfluencerName: "other",
			StartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			Status:    string(campaign.StatusCancelled),
		},
		{
			Name: "summer launch", InfluencerName: "daily_vlog",
			StartDate: time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
			Status:    string(campaign.StatusPlanned), ExpectedRevenue: 2000000,
		},
		{
			Name: "running now", InfluencerName: "krbeauty",
			StartDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC),
			Status:    string(campaign.StatusActive), ExpectedRevenue: 800000,
		},
		{
			// Window over, nobody flipped the status yet.
			Name: "stale active", InfluencerName: "daily_vlog",
			StartDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			Status:    string(campaign.StatusActive), ActualRevenue: 200000,
		},
	}
	for _, m := range models {
		m := m
		require.NoError(t, db.Create(&m).Error)
	}

	t.Run("ended before today", func(t *testing.T) {
		past, err := repo.EndedBefore(ctx, today)
		require.NoError(t, err)
		require.Len(t, past, 2)
		assert.Equal(t, "spring push", past[0].Name)
		assert.InDelta(t, 0.5, past[0].Ratio(), 1e-9)
		// A past window still marked active counts; only cancelled
		// campaigns are dropped.
		assert.Equal(t, "stale active", past[1].Name)
		for _, c := range past {
			assert.NotEqual(t, campaign.StatusCancelled, c.Status)
		}
	})

	t.Run("upcoming from today", func(t *testing.T) {
		upcoming, err := repo.UpcomingFrom(ctx, today)
		require.NoError(t, err)
		require.Len(t, upcoming, 2)
		// Ordered by start date: the active one started first.
		assert.Equal(t, "running now", upcoming[0].Name)
		assert.Equal(t, "summer launch", upcoming[1].Name)
	})
}
