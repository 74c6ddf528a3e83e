package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
)

// RequireAdmin checks that the session user has the admin role.
// Must run after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetSessionUser(c)
		if user == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, UnauthorizedMessage, nil)
			c.Abort()
			return
		}
		if user.Role != domain.RoleAdmin {
			common.ErrorResponse(c, http.StatusForbidden, "Se requieren permisos de administrador", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
