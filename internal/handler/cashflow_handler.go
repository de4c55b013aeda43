package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/service"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/response"
)

// CashFlowHandler serves cash-flow entry ("saisie") endpoints.
type CashFlowHandler struct {
	service *service.CashFlowService
}

// NewCashFlowHandler constructs the handler.
func NewCashFlowHandler(svc *service.CashFlowService) *CashFlowHandler {
	return &CashFlowHandler{service: svc}
}

// List godoc
// @Summary List cash-flow entries
// @Description Newest first
// @Tags Entries
// @Produce json
// @Param plan_id query string false "Plan"
// @Param category_id query string false "Category"
// @Param period_id query string false "Period"
// @Param pole_id query string false "Pole"
// @Param direction query string false "inflow or outflow"
// @Param status query string false "draft or validated"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param search query string false "Description search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /entries [get]
func (h *CashFlowHandler) List(c *gin.Context) {
	filter := models.CashFlowFilter{
		PlanID:      c.Query("plan_id"),
		CategoryID:  c.Query("category_id"),
		PeriodID:    c.Query("period_id"),
		PoleID:      c.Query("pole_id"),
		Search:      c.Query("search"),
		PageRequest: pageRequest(c),
	}
	switch d := models.FlowDirection(c.Query("direction")); d {
	case "":
	case models.FlowInflow, models.FlowOutflow:
		filter.Direction = &d
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "direction must be inflow or outflow"))
		return
	}
	switch s := models.EntryStatus(c.Query("status")); s {
	case "":
	case models.EntryStatusDraft, models.EntryStatusValidated:
		filter.Status = &s
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be draft or validated"))
		return
	}

	var err error
	if filter.From, err = dateQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = dateQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To != nil {
		end := filter.To.AddDate(0, 0, 1).Add(-1)
		filter.To = &end
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, page)
}

// Get godoc
// @Summary Get entry
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *CashFlowHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Create godoc
// @Summary Record an entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param payload body dto.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /entries [post]
func (h *CashFlowHandler) Create(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !bindJSON(c, &req, "invalid entry payload") {
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update an entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *CashFlowHandler) Update(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if !bindJSON(c, &req, "invalid entry payload") {
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// Delete godoc
// @Summary Delete an entry
// @Tags Entries
// @Param id path string true "Entry ID"
// @Success 204
// @Security BearerAuth
// @Router /entries/{id} [delete]
func (h *CashFlowHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
