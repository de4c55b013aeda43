package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treasury-api/internal/models"
)

type auditRecorder interface {
	Record(ctx context.Context, actor models.Actor, action, resource, resourceID, details string)
}

// Audit records an audit entry after successful requests on routes whose
// services do not audit themselves, such as read-only report generation.
func Audit(recorder auditRecorder, action string, resource models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"query":   c.Request.URL.RawQuery,
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})
		recorder.Record(c.Request.Context(), Actor(c), action, string(resource), c.Param("id"), string(body))
	}
}
