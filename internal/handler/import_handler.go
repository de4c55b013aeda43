package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/response"
)

// ImportHandler accepts cash-flow import batches.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs the handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Submit godoc
// @Summary Submit an import batch
// @Description Rows are processed in the background; poll the batch for its outcome.
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.SubmitImportRequest true "Import payload"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /imports [post]
func (h *ImportHandler) Submit(c *gin.Context) {
	var req dto.SubmitImportRequest
	if !bindJSON(c, &req, "invalid import payload") {
		return
	}
	batch, err := h.service.Submit(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, batch)
}

// List godoc
// @Summary List import batches
// @Tags Imports
// @Produce json
// @Param plan_id query string false "Plan"
// @Param status query string false "pending, processing, completed or failed"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /imports [get]
func (h *ImportHandler) List(c *gin.Context) {
	filter := models.ImportFilter{PlanID: c.Query("plan_id"), PageRequest: pageRequest(c)}
	if status := c.Query("status"); status != "" {
		s := models.ImportStatus(status)
		filter.Status = &s
	}
	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, page)
}

// Get godoc
// @Summary Get import batch
// @Tags Imports
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /imports/{id} [get]
func (h *ImportHandler) Get(c *gin.Context) {
	batch, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batch)
}

// Delete godoc
// @Summary Delete an import batch and its entries
// @Tags Imports
// @Param id path string true "Batch ID"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /imports/{id} [delete]
func (h *ImportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
