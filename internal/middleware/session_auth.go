package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
)

const sessionUserKey = "session_user"

// UnauthorizedMessage is returned to unauthenticated dashboard requests
const UnauthorizedMessage = "Acceso no autorizado. Debe iniciar sesión."

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.SessionUser, error)
}

// OptionalSession attaches the session user when the cookie is valid and
// always continues
func OptionalSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := resolveSession(c, auth, cookieName); user != nil {
			c.Set(sessionUserKey, user)
		}
		c.Next()
	}
}

// RequireSession rejects requests without a valid session with 401
func RequireSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := resolveSession(c, auth, cookieName)
		if user == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, UnauthorizedMessage, nil)
			c.Abort()
			return
		}
		c.Set(sessionUserKey, user)
		c.Next()
	}
}

// GetSessionUser returns the authenticated user or nil
func GetSessionUser(c *gin.Context) *domain.SessionUser {
	if v, ok := c.Get(sessionUserKey); ok {
		if user, ok := v.(*domain.SessionUser); ok {
			return user
		}
	}
	return nil
}

func resolveSession(c *gin.Context, auth Authenticator, cookieName string) *domain.SessionUser {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return nil
	}
	user, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}
