package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp    *models.DashboardMetrics
	hit     bool
	err     error
	lastQry dto.DashboardQuery
}

func (f *fakeDashboardSrv) Metrics(_ context.Context, q dto.DashboardQuery) (*models.DashboardMetrics, bool, error) {
	f.lastQry = q
	return f.resp, f.hit, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func dashboardRequest(h *DashboardHandler, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/dashboard", h.Metrics)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardHandlerSuccess(t *testing.T) {
	srv := &fakeDashboardSrv{resp: &models.DashboardMetrics{TotalInflow: 10, TotalOutflow: 4, NetFlow: 6}, hit: true}
	rec := dashboardRequest(NewDashboardHandler(srv), "/dashboard?plan_id=plan-2024&from=2024-01-01&to=2024-03-31")

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, float64(6), envelope.Data["net_flow"])

	assert.Equal(t, "plan-2024", srv.lastQry.PlanID)
	require.NotNil(t, srv.lastQry.From)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), srv.lastQry.From.UTC())
}

func TestDashboardHandlerInvalidDate(t *testing.T) {
	rec := dashboardRequest(NewDashboardHandler(&fakeDashboardSrv{}), "/dashboard?from=01/02/2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerServiceError(t *testing.T) {
	srv := &fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrValidation, "to must not be before from")}
	rec := dashboardRequest(NewDashboardHandler(srv), "/dashboard")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}
