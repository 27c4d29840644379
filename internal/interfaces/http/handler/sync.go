package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/application/ordersync"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
	"github.com/orderpulse/backend/internal/infrastructure/scheduler"
	"github.com/orderpulse/backend/internal/interfaces/http/dto"
	"github.com/orderpulse/backend/internal/interfaces/http/middleware"
)

// SchedulerStatusProvider reports the cron scheduler state.
type SchedulerStatusProvider interface {
	Status() scheduler.Status
}

// SyncService drives sync runs. Satisfied by the sync orchestrator.
type SyncService interface {
	Start(ctx context.Context, typ syncdomain.RunType, opts ordersync.StartOptions) (*syncdomain.Run, error)
	Status(ctx context.Context) (*ordersync.StatusReport, error)
	History(ctx context.Context, page, pageSize int) ([]syncdomain.Run, int64, error)
}

// SyncHandler exposes the sync trigger and monitoring endpoints.
type SyncHandler struct {
	BaseHandler
	orchestrator SyncService
	scheduler    SchedulerStatusProvider
	loc          *time.Location
	logger       *zap.Logger
}

// NewSyncHandler creates a sync handler. Window bounds in requests are
// interpreted in the given location.
func NewSyncHandler(orchestrator SyncService, sched SchedulerStatusProvider, loc *time.Location, logger *zap.Logger) *SyncHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SyncHandler{
		orchestrator: orchestrator,
		scheduler:    sched,
		loc:          loc,
		logger:       logger.Named("sync_handler"),
	}
}

// RegisterRoutes registers the sync routes.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("", h.TriggerFull)
		sync.POST("/incremental", h.TriggerIncremental)
		sync.POST("/recent", h.TriggerRecent)
		sync.POST("/yearly", h.TriggerYearly)
		sync.POST("/weekly", h.TriggerWeekly)
		sync.POST("/smart", h.TriggerSmart)
		sync.POST("/validation", h.TriggerValidation)
		sync.POST("/retry", h.TriggerRetry)
		sync.GET("/status", h.GetStatus)
		sync.GET("/history", h.GetHistory)
		sync.GET("/scheduler", h.GetSchedulerStatus)
	}
}

// TriggerFull starts a full sync over an explicit window of at most
// seven days.
func (h *SyncHandler) TriggerFull(c *gin.Context) {
	var req dto.SyncWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	window, ok := h.parseWindow(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	h.start(c, syncdomain.RunTypeFull, ordersync.StartOptions{Window: window})
}

// TriggerIncremental starts a trailing seven-day sync.
func (h *SyncHandler) TriggerIncremental(c *gin.Context) {
	h.start(c, syncdomain.RunTypeIncremental, ordersync.StartOptions{})
}

// TriggerRecent starts a trailing multi-week sync.
func (h *SyncHandler) TriggerRecent(c *gin.Context) {
	var req dto.RecentSyncRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	h.start(c, syncdomain.RunTypeRecent, ordersync.StartOptions{Weeks: req.Weeks})
}

// TriggerYearly starts a yearly backfill sync.
func (h *SyncHandler) TriggerYearly(c *gin.Context) {
	var req dto.OptionalWindowRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	window, ok := h.parseOptionalWindow(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	h.start(c, syncdomain.RunTypeYearly, ordersync.StartOptions{Window: window})
}

// TriggerWeekly starts a weekly chunked sync over the trailing months.
func (h *SyncHandler) TriggerWeekly(c *gin.Context) {
	var req dto.WeeklySyncRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	window, ok := h.parseOptionalWindow(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	h.start(c, syncdomain.RunTypeWeekly, ordersync.StartOptions{Window: window, Months: req.Months})
}

// TriggerSmart starts a smart incremental sync anchored on the last
// completed run.
func (h *SyncHandler) TriggerSmart(c *gin.Context) {
	h.start(c, syncdomain.RunTypeSmartIncremental, ordersync.StartOptions{})
}

// TriggerValidation starts the weekly validation sync.
func (h *SyncHandler) TriggerValidation(c *gin.Context) {
	h.start(c, syncdomain.RunTypeWeeklyValidation, ordersync.StartOptions{})
}

// TriggerRetry re-syncs an explicit window with degradation from the
// start, for windows that previously failed.
func (h *SyncHandler) TriggerRetry(c *gin.Context) {
	var req dto.SyncWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	window, ok := h.parseWindow(c, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	h.start(c, syncdomain.RunTypeRetryPeriod, ordersync.StartOptions{Window: window})
}

// GetStatus reports the in-flight run, the last finished run and order
// store aggregates.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	report, err := h.orchestrator.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load sync status", zap.Error(err))
		h.InternalError(c, "Failed to load sync status")
		return
	}
	h.Success(c, dto.NewSyncStatusResponse(report))
}

// GetHistory lists past runs, newest first.
func (h *SyncHandler) GetHistory(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	runs, total, err := h.orchestrator.History(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.logger.Error("Failed to load sync history", zap.Error(err))
		h.InternalError(c, "Failed to load sync history")
		return
	}
	h.SuccessWithMeta(c, dto.NewSyncRunResponses(runs), total, req.Page, req.PageSize)
}

// GetSchedulerStatus reports the cron scheduler tasks.
func (h *SyncHandler) GetSchedulerStatus(c *gin.Context) {
	h.Success(c, h.scheduler.Status())
}

// start triggers a run and writes the response for all trigger
// endpoints.
func (h *SyncHandler) start(c *gin.Context, typ syncdomain.RunType, opts ordersync.StartOptions) {
	run, err := h.orchestrator.Start(c.Request.Context(), typ, opts)
	switch {
	case errors.Is(err, syncdomain.ErrAlreadyRunning):
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeSyncInProgress, "A sync run is already in progress", getRequestID(c))
		// Report the run holding the slot so the caller can watch it.
		if report, rerr := h.orchestrator.Status(c.Request.Context()); rerr == nil && report.Current != nil {
			resp.Data = dto.NewSyncRunResponse(report.Current)
		}
		c.JSON(http.StatusConflict, resp)
	case errors.Is(err, syncdomain.ErrWindowRequired),
		errors.Is(err, syncdomain.ErrInvalidTimeRange),
		errors.Is(err, syncdomain.ErrUnknownRunType):
		h.BadRequest(c, err.Error())
	case err != nil:
		h.logger.Error("Failed to start sync run",
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		h.InternalError(c, "Failed to start sync run")
	default:
		h.Accepted(c, dto.NewSyncRunResponse(run))
	}
}

// bindOptionalJSON binds the body when one is present. Trigger
// endpoints accept an empty body for default parameters.
func (h *SyncHandler) bindOptionalJSON(c *gin.Context, out any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *SyncHandler) parseWindow(c *gin.Context, startDate, endDate string) (*syncdomain.DateRange, bool) {
	window, err := syncdomain.ParseDateRange(startDate, endDate, h.loc)
	if err != nil {
		h.BadRequest(c, err.Error())
		return nil, false
	}
	return &window, true
}

// parseOptionalWindow returns nil when neither bound is set, and
// rejects half-open input.
func (h *SyncHandler) parseOptionalWindow(c *gin.Context, startDate, endDate string) (*syncdomain.DateRange, bool) {
	if startDate == "" && endDate == "" {
		return nil, true
	}
	if startDate == "" || endDate == "" {
		h.BadRequest(c, "start_date and end_date must be provided together")
		return nil, false
	}
	return h.parseWindow(c, startDate, endDate)
}
