package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/response"
)

// ForecastHandler serves scenarios and their projections.
type ForecastHandler struct {
	service *service.ForecastService
}

// NewForecastHandler constructs the handler.
func NewForecastHandler(svc *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: svc}
}

// ListScenarios godoc
// @Summary List scenarios
// @Tags Forecasts
// @Produce json
// @Param plan_id query string false "Plan"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios [get]
func (h *ForecastHandler) ListScenarios(c *gin.Context) {
	scenarios, err := h.service.ListScenarios(c.Request.Context(), c.Query("plan_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scenarios)
}

// GetScenario godoc
// @Summary Get scenario
// @Tags Forecasts
// @Produce json
// @Param id path string true "Scenario ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios/{id} [get]
func (h *ForecastHandler) GetScenario(c *gin.Context) {
	scenario, err := h.service.GetScenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scenario)
}

// CreateScenario godoc
// @Summary Create scenario
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param payload body dto.CreateScenarioRequest true "Scenario payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios [post]
func (h *ForecastHandler) CreateScenario(c *gin.Context) {
	var req dto.CreateScenarioRequest
	if !bindJSON(c, &req, "invalid scenario payload") {
		return
	}
	scenario, err := h.service.CreateScenario(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scenario)
}

// UpdateScenario godoc
// @Summary Update scenario
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param id path string true "Scenario ID"
// @Param payload body dto.UpdateScenarioRequest true "Scenario payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios/{id} [put]
func (h *ForecastHandler) UpdateScenario(c *gin.Context) {
	var req dto.UpdateScenarioRequest
	if !bindJSON(c, &req, "invalid scenario payload") {
		return
	}
	scenario, err := h.service.UpdateScenario(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, scenario)
}

// DeleteScenario godoc
// @Summary Delete scenario
// @Tags Forecasts
// @Param id path string true "Scenario ID"
// @Success 204
// @Security BearerAuth
// @Router /scenarios/{id} [delete]
func (h *ForecastHandler) DeleteScenario(c *gin.Context) {
	if err := h.service.DeleteScenario(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Run a scenario
// @Description Projects monthly flows from the plan's history scaled by the scenario growth rates
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param id path string true "Scenario ID"
// @Param payload body dto.GenerateForecastRequest true "Horizon"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios/{id}/forecasts [post]
func (h *ForecastHandler) Generate(c *gin.Context) {
	var req dto.GenerateForecastRequest
	if !bindJSON(c, &req, "invalid forecast payload") {
		return
	}
	forecast, err := h.service.Generate(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, forecast)
}

// Latest godoc
// @Summary Latest projection of a scenario
// @Tags Forecasts
// @Produce json
// @Param id path string true "Scenario ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /scenarios/{id}/forecasts/latest [get]
func (h *ForecastHandler) Latest(c *gin.Context) {
	forecast, err := h.service.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, forecast)
}
