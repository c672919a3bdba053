package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/telemetry"
)

// Logging emits a structured log per request. Long-lived event streams are
// logged when they close, like any other request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		action := ""
		if raw, ok := c.Get("portalAction"); ok {
			if s, ok := raw.(string); ok {
				action = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"action":      action,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
