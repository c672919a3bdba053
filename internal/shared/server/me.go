package server

import (
	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireIdentity(), meHandler)
}

func meHandler(c *gin.Context) {
	response := gin.H{
		"userId": middleware.UserIDFromContext(c),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	respond.OK(c, response)
}
