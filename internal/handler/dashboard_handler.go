package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/response"
)

type dashboardService interface {
	Metrics(ctx context.Context, q dto.DashboardQuery) (*models.DashboardMetrics, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Metrics godoc
// @Summary Treasury dashboard summary
// @Tags Dashboard
// @Produce json
// @Param plan_id query string false "Plan"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var q dto.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dashboard query"))
		return
	}
	metrics, cacheHit, err := h.service.Metrics(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, metrics, nil, middleware.ResponseMeta(c))
}
