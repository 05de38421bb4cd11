package middleware

import (
	"net/http"
	"slices"

	"charterdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleAgent      = "agent"
)

// RequireRole lets the request through when the token role is one of roles.
// Must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if !slices.Contains(roles, role) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}
