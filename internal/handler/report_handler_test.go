package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
)

type fakeReportSrv struct {
	calls int
	last  dto.ReportQuery
}

func (f *fakeReportSrv) Generate(_ context.Context, q dto.ReportQuery) (*models.Report, error) {
	f.calls++
	f.last = q
	return &models.Report{PlanID: q.PlanID, Months: []string{"2024-01"}}, nil
}

func TestReportHandlerRequiresRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports?from=2024-01-01", nil)
	h.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.calls)
}

func TestReportHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports?plan_id=plan-2024&from=2024-01-01&to=2024-01-31", nil)
	h.Generate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.calls)
	assert.Equal(t, "plan-2024", srv.last.PlanID)
	assert.Equal(t, 31, srv.last.To.Day())
	assert.Contains(t, rec.Body.String(), `"months":["2024-01"]`)
}
