package dto

import (
	"time"

	"github.com/orderpulse/backend/internal/application/ordersync"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
)

// SyncWindowRequest is an explicit date window, required.
type SyncWindowRequest struct {
	StartDate string `json:"start_date" binding:"required,dateformat"`
	EndDate   string `json:"end_date" binding:"required,dateformat"`
}

// OptionalWindowRequest is an explicit date window, both fields
// optional but only valid together.
type OptionalWindowRequest struct {
	StartDate string `json:"start_date" binding:"omitempty,dateformat"`
	EndDate   string `json:"end_date" binding:"omitempty,dateformat"`
}

// RecentSyncRequest tunes the trailing window of a recent sync.
type RecentSyncRequest struct {
	Weeks int `json:"weeks" binding:"omitempty,min=1,max=12"`
}

// WeeklySyncRequest tunes the trailing window of a weekly sync.
type WeeklySyncRequest struct {
	OptionalWindowRequest
	Months int `json:"months" binding:"omitempty,min=1,max=12"`
}

// ForecastQuery are the forecast endpoint parameters. days bounds the
// revenue history fed into the trend; forecast_days bounds the
// projection.
type ForecastQuery struct {
	Days            int   `form:"days" binding:"omitempty,min=1,max=365"`
	ForecastDays    int   `form:"forecast_days" binding:"omitempty,min=1,max=90"`
	UseCampaignData *bool `form:"useCampaignData"`
	UseCampaigns    *bool `form:"use_campaigns"`
	ExcludeInternal *bool `form:"exclude_internal"`
}

// CampaignOverlay resolves the campaign overlay flag, on by default.
// use_campaigns is accepted as a snake_case alias of useCampaignData.
func (q *ForecastQuery) CampaignOverlay() bool {
	if q.UseCampaignData != nil {
		return *q.UseCampaignData
	}
	if q.UseCampaigns != nil {
		return *q.UseCampaigns
	}
	return true
}

// SyncRunResponse is the wire form of a sync run.
type SyncRunResponse struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Status       string     `json:"status"`
	TotalCount   int        `json:"total_count"`
	SkippedUnits int        `json:"skipped_units"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// NewSyncRunResponse maps a run to its wire form.
func NewSyncRunResponse(run *syncdomain.Run) SyncRunResponse {
	return SyncRunResponse{
		ID:           run.ID.String(),
		Type:         string(run.Type),
		StartDate:    run.Window.Start.Format(syncdomain.DateFormat),
		EndDate:      run.Window.End.Format(syncdomain.DateFormat),
		Status:       string(run.Status),
		TotalCount:   run.TotalCount,
		SkippedUnits: run.SkippedUnits,
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
		ErrorMessage: run.ErrorMessage,
	}
}

// NewSyncRunResponses maps a run slice to its wire form.
func NewSyncRunResponses(runs []syncdomain.Run) []SyncRunResponse {
	out := make([]SyncRunResponse, len(runs))
	for i := range runs {
		out[i] = NewSyncRunResponse(&runs[i])
	}
	return out
}

// SyncStatusResponse is the sync status endpoint payload.
type SyncStatusResponse struct {
	IsRunning   bool             `json:"is_running"`
	CurrentRun  *SyncRunResponse `json:"current_run,omitempty"`
	LastRun     *SyncRunResponse `json:"last_run,omitempty"`
	TotalOrders int64            `json:"total_orders"`
	OldestOrder *time.Time       `json:"oldest_order,omitempty"`
	NewestOrder *time.Time       `json:"newest_order,omitempty"`
}

// NewSyncStatusResponse maps a status report to its wire form.
func NewSyncStatusResponse(report *ordersync.StatusReport) SyncStatusResponse {
	resp := SyncStatusResponse{IsRunning: report.Current != nil}
	if report.Current != nil {
		run := NewSyncRunResponse(report.Current)
		resp.CurrentRun = &run
	}
	if report.Last != nil {
		run := NewSyncRunResponse(report.Last)
		resp.LastRun = &run
	}
	if report.Orders != nil {
		resp.TotalOrders = report.Orders.TotalOrders
		resp.OldestOrder = report.Orders.OldestOrder
		resp.NewestOrder = report.Orders.NewestOrder
	}
	return resp
}
