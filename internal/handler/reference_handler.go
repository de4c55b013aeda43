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

// ReferenceHandler serves plan configuration: reference items and settings.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// List godoc
// @Summary List reference items
// @Tags Reference
// @Produce json
// @Param kind query string false "category, rubrique, period, plan or pole"
// @Param parent_id query string false "Parent category of rubriques"
// @Param active query bool false "Only active items"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reference [get]
func (h *ReferenceHandler) List(c *gin.Context) {
	filter := models.ReferenceFilter{
		ParentID:   c.Query("parent_id"),
		ActiveOnly: c.Query("active") == "true",
	}
	if kind := c.Query("kind"); kind != "" {
		k := models.ReferenceKind(kind)
		if !k.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown reference kind "+kind))
			return
		}
		filter.Kind = k
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get reference item
// @Tags Reference
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reference/{id} [get]
func (h *ReferenceHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Create godoc
// @Summary Create reference item
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body dto.CreateReferenceRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /reference [post]
func (h *ReferenceHandler) Create(c *gin.Context) {
	var req dto.CreateReferenceRequest
	if !bindJSON(c, &req, "invalid reference payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update reference item
// @Tags Reference
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.UpdateReferenceRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reference/{id} [put]
func (h *ReferenceHandler) Update(c *gin.Context) {
	var req dto.UpdateReferenceRequest
	if !bindJSON(c, &req, "invalid reference payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete reference item
// @Description Items still referenced by entries are rejected with 422
// @Tags Reference
// @Param id path string true "Item ID"
// @Success 204
// @Security BearerAuth
// @Router /reference/{id} [delete]
func (h *ReferenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSettings godoc
// @Summary List settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [get]
func (h *ReferenceHandler) ListSettings(c *gin.Context) {
	settings, err := h.service.ListSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// GetSetting godoc
// @Summary Get setting
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/{key} [get]
func (h *ReferenceHandler) GetSetting(c *gin.Context) {
	setting, err := h.service.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, setting)
}

// UpsertSetting godoc
// @Summary Set a setting value
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body dto.UpsertSettingRequest true "Setting payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/{key} [put]
func (h *ReferenceHandler) UpsertSetting(c *gin.Context) {
	var req dto.UpsertSettingRequest
	if !bindJSON(c, &req, "invalid setting payload") {
		return
	}
	setting, err := h.service.UpsertSetting(c.Request.Context(), c.Param("key"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, setting)
}
