package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/application/forecasting"
	"github.com/orderpulse/backend/internal/domain/forecast"
	"github.com/orderpulse/backend/internal/interfaces/http/dto"
	"github.com/orderpulse/backend/internal/interfaces/http/middleware"
)

// ForecastService computes forecasts. Satisfied by the forecasting
// service.
type ForecastService interface {
	Forecast(ctx context.Context, opts forecasting.Options) (*forecast.Result, error)
}

// ForecastHandler exposes the revenue forecast endpoint.
type ForecastHandler struct {
	BaseHandler
	service ForecastService
	logger  *zap.Logger
}

// NewForecastHandler creates a forecast handler.
func NewForecastHandler(service ForecastService, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{
		service: service,
		logger:  logger.Named("forecast_handler"),
	}
}

// RegisterRoutes registers the stats routes.
func (h *ForecastHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stats := rg.Group("/stats")
	{
		stats.GET("/forecast", h.GetForecast)
	}
}

// GetForecast computes the revenue forecast. days selects the history
// window and forecast_days the horizon; the campaign overlay is on
// unless useCampaignData=false is passed.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	var query dto.ForecastQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	includeInternal := false
	if query.ExcludeInternal != nil {
		includeInternal = !*query.ExcludeInternal
	}

	result, err := h.service.Forecast(c.Request.Context(), forecasting.Options{
		LookbackDays:    query.Days,
		HorizonDays:     query.ForecastDays,
		UseCampaigns:    query.CampaignOverlay(),
		IncludeInternal: includeInternal,
	})
	if err != nil {
		h.logger.Error("Failed to compute forecast", zap.Error(err))
		h.InternalError(c, "Failed to compute forecast")
		return
	}
	h.Success(c, result)
}
