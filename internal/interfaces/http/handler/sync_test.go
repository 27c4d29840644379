package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/application/ordersync"
	"github.com/orderpulse/backend/internal/domain/commerce"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
	"github.com/orderpulse/backend/internal/infrastructure/scheduler"
	"github.com/orderpulse/backend/internal/interfaces/http/dto"
	"github.com/orderpulse/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type fakeSyncService struct {
	startErr   error
	lastType   syncdomain.RunType
	lastOpts   ordersync.StartOptions
	report     *ordersync.StatusReport
	history    []syncdomain.Run
	historyLen int64
}

func (f *fakeSyncService) Start(ctx context.Context, typ syncdomain.RunType, opts ordersync.StartOptions) (*syncdomain.Run, error) {
	f.lastType = typ
	f.lastOpts = opts
	if f.startErr != nil {
		return nil, f.startErr
	}
	window := syncdomain.DateRange{
		Start: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	if opts.Window != nil {
		window = *opts.Window
	}
	return syncdomain.NewRun(typ, window, time.Now()), nil
}

func (f *fakeSyncService) Status(ctx context.Context) (*ordersync.StatusReport, error) {
	if f.report == nil {
		return &ordersync.StatusReport{Orders: &commerce.OrderStats{}}, nil
	}
	return f.report, nil
}

func (f *fakeSyncService) History(ctx context.Context, page, pageSize int) ([]syncdomain.Run, int64, error) {
	return f.history, f.historyLen, nil
}

type fakeSchedulerStatus struct{}

func (fakeSchedulerStatus) Status() scheduler.Status {
	return scheduler.Status{Enabled: true, Running: true}
}

func newSyncRouter(svc SyncService) *gin.Engine {
	engine := gin.New()
	h := NewSyncHandler(svc, fakeSchedulerStatus{}, time.UTC, zap.NewNop())
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestTriggerIncremental(t *testing.T) {
	svc := &fakeSyncService{}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync/incremental", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, syncdomain.RunTypeIncremental, svc.lastType)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestTriggerFullRequiresWindow(t *testing.T) {
	svc := &fakeSyncService{}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, engine, "/api/v1/sync", map[string]string{
		"start_date": "2025-06-10",
		"end_date":   "06/12/2025",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	w = postJSON(t, engine, "/api/v1/sync", map[string]string{
		"start_date": "2025-06-10",
		"end_date":   "2025-06-12",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, svc.lastOpts.Window)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), svc.lastOpts.Window.Start)
}

func TestTriggerConflictWhenRunning(t *testing.T) {
	window := syncdomain.DateRange{
		Start: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	current := syncdomain.NewRun(syncdomain.RunTypeIncremental, window, time.Now())
	svc := &fakeSyncService{
		startErr: syncdomain.ErrAlreadyRunning,
		report: &ordersync.StatusReport{
			Current: current,
			Orders:  &commerce.OrderStats{},
		},
	}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync/smart", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Error   *dto.ErrorInfo       `json:"error"`
		Data    *dto.SyncRunResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeSyncInProgress, resp.Error.Code)
	// The response carries the run holding the slot.
	require.NotNil(t, resp.Data)
	assert.Equal(t, current.ID.String(), resp.Data.ID)
}

func TestTriggerRecentPassesWeeks(t *testing.T) {
	svc := &fakeSyncService{}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync/recent", map[string]int{"weeks": 5})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, syncdomain.RunTypeRecent, svc.lastType)
	assert.Equal(t, 5, svc.lastOpts.Weeks)

	// No body falls back to defaults.
	w = postJSON(t, engine, "/api/v1/sync/recent", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 0, svc.lastOpts.Weeks)
}

func TestTriggerWeeklyRejectsHalfWindow(t *testing.T) {
	svc := &fakeSyncService{}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync/weekly", map[string]string{
		"start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerRetryRequiresWindow(t *testing.T) {
	svc := &fakeSyncService{}
	engine := newSyncRouter(svc)

	w := postJSON(t, engine, "/api/v1/sync/retry", map[string]string{
		"start_date": "2025-06-01",
		"end_date":   "2025-06-10",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, syncdomain.RunTypeRetryPeriod, svc.lastType)

	w = postJSON(t, engine, "/api/v1/sync/retry", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus(t *testing.T) {
	window := syncdomain.DateRange{
		Start: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	current := syncdomain.NewRun(syncdomain.RunTypeIncremental, window, time.Now())
	svc := &fakeSyncService{
		report: &ordersync.StatusReport{
			Current: current,
			Orders:  &commerce.OrderStats{TotalOrders: 1234},
		},
	}
	engine := newSyncRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    dto.SyncStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsRunning)
	assert.Equal(t, int64(1234), resp.Data.TotalOrders)
	require.NotNil(t, resp.Data.CurrentRun)
	assert.Equal(t, "running", resp.Data.CurrentRun.Status)
}

func TestGetHistoryPagination(t *testing.T) {
	window := syncdomain.DateRange{
		Start: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	run := syncdomain.NewRun(syncdomain.RunTypeWeekly, window, time.Now())
	run.Complete(50, 0, 1, time.Now())
	svc := &fakeSyncService{history: []syncdomain.Run{*run}, historyLen: 41}
	engine := newSyncRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/history?page=2&page_size=20", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestGetSchedulerStatus(t *testing.T) {
	engine := newSyncRouter(&fakeSyncService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/scheduler", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)
}
