package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/pkg/response"
)

type profileService interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, req dto.CreateProfileRequest, actor models.Actor) (*models.Profile, error)
	Update(ctx context.Context, id string, req dto.UpdateProfileRequest, actor models.Actor) (*models.Profile, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
	SetPermission(ctx context.Context, id string, req dto.SetPermissionRequest, actor models.Actor) (*models.Profile, error)
	SetAllForResource(ctx context.Context, id string, req dto.SetResourceRequest, actor models.Actor) (*models.Profile, error)
	Duplicate(ctx context.Context, id string, req dto.DuplicateProfileRequest, actor models.Actor) (*models.Profile, error)
}

// ProfileHandler exposes profile and permission-grant management.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List godoc
// @Summary List profiles
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profiles)
}

// Catalog godoc
// @Summary Resources and the actions each accepts
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/catalog [get]
func (h *ProfileHandler) Catalog(c *gin.Context) {
	catalog := make([]models.Permission, 0, len(models.AllResources()))
	for _, r := range models.AllResources() {
		catalog = append(catalog, models.Permission{Resource: r, Actions: models.ResourceActions(r)})
	}
	response.OK(c, catalog)
}

// Get godoc
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Create godoc
// @Summary Create profile
// @Description Creates an empty, non-default profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body dto.CreateProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	var req dto.CreateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// Update godoc
// @Summary Update profile
// @Description Merges provided fields. A stale expected_version answers 409.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Delete godoc
// @Summary Delete profile
// @Description Default profiles and profiles still assigned to users are rejected with 422
// @Tags Profiles
// @Param id path string true "Profile ID"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetPermission godoc
// @Summary Grant or revoke one action
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.SetPermissionRequest true "Grant payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id}/permissions [put]
func (h *ProfileHandler) SetPermission(c *gin.Context) {
	var req dto.SetPermissionRequest
	if !bindJSON(c, &req, "invalid permission payload") {
		return
	}
	profile, err := h.service.SetPermission(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// SetResource godoc
// @Summary Grant or clear every action on a resource
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.SetResourceRequest true "Resource payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id}/resources [put]
func (h *ProfileHandler) SetResource(c *gin.Context) {
	var req dto.SetResourceRequest
	if !bindJSON(c, &req, "invalid permission payload") {
		return
	}
	profile, err := h.service.SetAllForResource(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Duplicate godoc
// @Summary Copy a profile's grants under a new name
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Source profile ID"
// @Param payload body dto.DuplicateProfileRequest true "New name"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /profiles/{id}/duplicate [post]
func (h *ProfileHandler) Duplicate(c *gin.Context) {
	var req dto.DuplicateProfileRequest
	if !bindJSON(c, &req, "invalid duplicate payload") {
		return
	}
	profile, err := h.service.Duplicate(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}
