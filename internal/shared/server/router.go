package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
)

// NewEngine constructs the Gin engine with the shared middleware chain and the
// operational routes. Callers register their own routes on the returned engine.
// checks may be nil.
func NewEngine(cfg config.Config, principal middleware.PrincipalFunc, checks *health.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Identity(principal),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		report := checks.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	registerMeRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

// NotFound is the fallback handler for unknown routes.
func NotFound(c *gin.Context) {
	respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
}
