package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/middleware"
	"github.com/lineaetica/etica-backend/pkg/ginutil"
)

// AuditHandler exposes the admin audit trail
type AuditHandler struct {
	audit *middleware.AuditLogger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *middleware.AuditLogger) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLogs godoc
// @Summary Bitácora de auditoría
// @Description Acciones de administradores (inicio de sesión, cambios de estado, exportaciones)
// @Tags admin
// @Produce json
// @Param email query string false "Email del administrador"
// @Param action query string false "login, logout, status_change, export"
// @Param page query int false "Página"
// @Param limit query int false "Registros por página"
// @Success 200 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)

	logs, total, err := h.audit.ListAuditLogs(c.Request.Context(), c.Query("email"), c.Query("action"), page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgInternalError, err)
		return
	}

	common.SuccessResponse(c, "", gin.H{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
