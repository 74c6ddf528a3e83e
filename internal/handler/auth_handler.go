package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/config"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/middleware"
	"github.com/lineaetica/etica-backend/internal/service"
)

const (
	msgCredentialsRequired = "Email y contraseña son requeridos"
	msgInvalidCredentials  = "Credenciales inválidas"
	msgLoginOK             = "Autenticación exitosa"
	msgLoginError          = "Error interno del servidor"
	msgLogoutOK            = "Sesión cerrada exitosamente"
	msgLogoutError         = "Error al cerrar sesión"
)

// AuthHandler handles dashboard authentication requests
type AuthHandler struct {
	service service.AuthService
	session config.SessionConfig
	audit   *middleware.AuditLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service service.AuthService, cfg config.SessionConfig, audit *middleware.AuditLogger) *AuthHandler {
	return &AuthHandler{
		service: service,
		session: cfg,
		audit:   audit,
	}
}

// Login godoc
// @Summary Iniciar sesión
// @Description Verifica las credenciales y abre una sesión de 24 horas (cookie HttpOnly)
// @Tags auth
// @Accept json
// @Produce json
// @Param body body domain.LoginRequest true "Credenciales"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, msgCredentialsRequired, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, common.ErrInvalidCredentials) {
		h.audit.RecordAs(c, req.Email, middleware.AuditLogin, "failed")
		common.ErrorResponse(c, http.StatusUnauthorized, msgInvalidCredentials, nil)
		return
	}
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgLoginError, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	h.audit.RecordAs(c, result.User.Email, middleware.AuditLogin, "ok")

	common.SuccessResponse(c, msgLoginOK, gin.H{"user": result.User})
}

// Verify godoc
// @Summary Verificar sesión
// @Description Devuelve la identidad de la sesión actual o authenticated=false
// @Tags auth
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	user := middleware.GetSessionUser(c)
	if user == nil {
		common.SuccessResponse(c, "", gin.H{"authenticated": false})
		return
	}
	common.SuccessResponse(c, "", gin.H{
		"authenticated": true,
		"user":          user,
	})
}

// Logout godoc
// @Summary Cerrar sesión
// @Tags auth
// @Produce json
// @Success 200 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.session.CookieName)
	if token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			common.ErrorResponse(c, http.StatusInternalServerError, msgLogoutError, err)
			return
		}
		h.audit.Record(c, middleware.AuditLogout, "session", "", "")
	}

	h.clearSessionCookie(c)
	common.SuccessResponse(c, msgLogoutOK, nil)
}

// setSessionCookie sets the session token as an httpOnly cookie
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.session.CookieName, // name
		token,                // value
		maxAge,               // maxAge
		"/",                  // path
		"",                   // domain
		h.session.Secure,     // secure (HTTPS only in production)
		true,                 // httpOnly
	)
}

// clearSessionCookie removes the session cookie
func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.session.CookieName, // name
		"",                   // value
		-1,                   // maxAge (expire now)
		"/",                  // path
		"",                   // domain
		h.session.Secure,     // secure
		true,                 // httpOnly
	)
}
