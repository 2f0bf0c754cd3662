package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinesight/internal/domain"
	"dinesight/internal/pkg/response"
)

// RequireRole ensures the authenticated user holds at least the given role.
// The hierarchy is viewer < user < manager < admin; an admin passes every
// gate.
func RequireRole(minRole domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleAny, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		role := domain.Role(roleAny.(string))
		if !role.AtLeast(minRole) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
