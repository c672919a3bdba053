package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// Principal is the signed-in identity behind a request.
type Principal struct {
	UserID string
	Email  string
}

// PrincipalFunc resolves the identity bound to a request, if any.
type PrincipalFunc func(*gin.Context) (Principal, bool)

// Identity stores the resolved principal in context. It never rejects a
// request; use RequireIdentity on routes that need a signed-in user.
func Identity(resolve PrincipalFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || resolve == nil {
			c.Next()
			return
		}
		if p, ok := resolve(c); ok && p.UserID != "" {
			c.Set(userIDKey, p.UserID)
			if p.Email != "" {
				c.Set(userEmailKey, p.Email)
			}
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 when Identity found no principal.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the identity middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
