package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit log entries
// @Description Newest first
// @Tags Audit
// @Produce json
// @Param user_id query string false "Actor"
// @Param action query string false "Action tag"
// @Param resource query string false "Resource"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	from, err := dateQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-1)
		to = &end
	}

	page, err := h.service.List(c.Request.Context(), models.AuditFilter{
		UserID:      c.Query("user_id"),
		Action:      c.Query("action"),
		Resource:    c.Query("resource"),
		From:        from,
		To:          to,
		PageRequest: pageRequest(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, page)
}
