package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
	"github.com/noah-isme/treasury-api/pkg/response"
)

const dateLayout = "2006-01-02"

// bindJSON decodes the request body into dest, answering 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func pageRequest(c *gin.Context) models.PageRequest {
	var req models.PageRequest
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(models.DefaultPageSize))); err == nil {
		req.PageSize = size
	}
	return req.Normalize()
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must use format YYYY-MM-DD")
	}
	return &t, nil
}
