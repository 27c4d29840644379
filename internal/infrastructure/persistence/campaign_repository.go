package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orderpulse/backend/internal/domain/campaign"
)

// CampaignModel is the GORM model for influencer campaigns. Campaign
// management is handled by a separate surface; this service reads the
// table for forecast adjustment only.
type CampaignModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string    `gorm:"column:name;size:200"`
	InfluencerName  string    `gorm:"column:influencer_name;size:100"`
	StartDate       time.Time `gorm:"column:start_date;index"`
	EndDate         time.Time `gorm:"column:end_date;index"`
	ExpectedRevenue int64     `gorm:"column:expected_revenue"`
	ActualRevenue   int64     `gorm:"column:actual_revenue"`
	ManualRevenue   *int64    `gorm:"column:manual_actual_revenue"`
	Status          string    `gorm:"column:status;size:20;index"`
	Notes           string    `gorm:"column:notes;type:text"`
}

// TableName specifies the table name
func (CampaignModel) TableName() string {
	return "influencer_campaigns"
}

// ToEntity converts the model to a domain campaign
func (m *CampaignModel) ToEntity() campaign.Campaign {
	return campaign.Campaign{
		ID:              m.ID,
		Name:            m.Name,
		InfluencerName:  m.InfluencerName,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		ExpectedRevenue: m.ExpectedRevenue,
		ActualRevenue:   m.ActualRevenue,
		ManualRevenue:   m.ManualRevenue,
		Status:          campaign.Status(m.Status),
		Notes:           m.Notes,
	}
}

// GormCampaignRepository implements campaign.Repository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GORM-based campaign repository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// EndedBefore returns non-cancelled campaigns that ended before the
// day. Status is not required to be completed; campaigns past their
// window often stay marked active until someone updates them.
func (r *GormCampaignRepository) EndedBefore(ctx context.Context, day time.Time) ([]campaign.Campaign, error) {
	var models []CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status <> ? AND end_date < ?", string(campaign.StatusCancelled), day).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query past campaigns: %w", err)
	}
	return toCampaigns(models), nil
}

// UpcomingFrom returns planned and active campaigns still running on or
// after the day
func (r *GormCampaignRepository) UpcomingFrom(ctx context.Context, day time.Time) ([]campaign.Campaign, error) {
	var models []CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND end_date >= ?",
			[]string{string(campaign.StatusPlanned), string(campaign.StatusActive)}, day).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query upcoming campaigns: %w", err)
	}
	return toCampaigns(models), nil
}

func toCampaigns(models []CampaignModel) []campaign.Campaign {
	campaigns := make([]campaign.Campaign, len(models))
	for i := range models {
		campaigns[i] = models[i].ToEntity()
	}
	return campaigns
}

// Compile-time interface check
var _ campaign.Repository = (*GormCampaignRepository)(nil)
