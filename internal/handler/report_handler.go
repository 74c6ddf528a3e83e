package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/middleware"
	"github.com/lineaetica/etica-backend/internal/service"
	"github.com/lineaetica/etica-backend/pkg/ginutil"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
)

// Response messages shown by the intake form and the dashboard
const (
	msgReportSubmitted = "Reporte enviado exitosamente"
	msgInternalError   = "Error interno del servidor. Intente nuevamente."
	msgInvalidForm     = "No se pudo procesar el formulario. Verifique los datos y los archivos adjuntos."
	msgReportsError    = "Error obteniendo reportes"
	msgStatsError      = "Error obteniendo estadísticas"
	msgExportError     = "Error generando la exportación"
	msgInvalidStatus   = "Estado inválido. Valores permitidos: pendiente, en_revision, resuelto, cerrado"
	msgReportNotFound  = "Reporte no encontrado"
	msgStatusUpdated   = "Estado actualizado exitosamente"
	msgConnectionOK    = "Conexión exitosa"
	msgConnectionError = "Error de conexión"
	msgInvalidFilter   = "Filtros inválidos"
)

// AttachmentsField is the multipart field carrying the uploaded files
const AttachmentsField = "attachments"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles intake and dashboard requests
type ReportHandler struct {
	service *service.ReportService
	audit   *middleware.AuditLogger
}

// NewReportHandler creates a new ReportHandler. audit may be nil.
func NewReportHandler(service *service.ReportService, audit *middleware.AuditLogger) *ReportHandler {
	return &ReportHandler{service: service, audit: audit}
}

// SubmitReport godoc
// @Summary Enviar reporte
// @Description Recibe un reporte de la línea ética (multipart, hasta 5 adjuntos de 5 MB)
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param situation_relation formData string true "Relación con la situación"
// @Param area formData string true "Área"
// @Param type formData string true "Tipo de reporte"
// @Param subject formData string true "Asunto"
// @Param message formData string true "Mensaje"
// @Param company formData string false "Empresa"
// @Param name formData string false "Nombre (vacío = anónimo)"
// @Param attachments formData file false "Archivos adjuntos"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /submit-report [post]
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	values, files, err := readSubmission(c)
	if err != nil {
		middleware.RecordSubmission(middleware.SubmissionRejected)
		common.ErrorResponse(c, http.StatusBadRequest, msgInvalidForm, err)
		return
	}

	report, err := h.service.Submit(c.Request.Context(), values, files)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			middleware.RecordSubmission(middleware.SubmissionRejected)
			common.ErrorResponse(c, http.StatusBadRequest, verr.Message, nil)
			return
		}
		middleware.RecordSubmission(middleware.SubmissionFailed)
		pkglogger.Error("submit report: %v", err)
		common.ErrorResponse(c, http.StatusInternalServerError, msgInternalError, err)
		return
	}

	middleware.RecordSubmission(middleware.SubmissionAccepted)
	common.SuccessResponse(c, msgReportSubmitted, gin.H{"reportId": report.ID})
}

// readSubmission accepts multipart bodies and, for clients without files,
// plain urlencoded forms
func readSubmission(c *gin.Context) (map[string][]string, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err == nil {
		return form.Value, form.File[AttachmentsField], nil
	}
	if !errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}
	return c.Request.PostForm, nil, nil
}

// bindFilter reads the optional dashboard filter from the query string
func bindFilter(c *gin.Context) (dashboard.Filter, bool) {
	var f dashboard.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, msgInvalidFilter, err)
		return f, false
	}
	return f, true
}

// ListReports godoc
// @Summary Listar reportes
// @Description Devuelve todos los reportes, más recientes primero, con filtros opcionales
// @Tags reports
// @Produce json
// @Param type query string false "Tipo de reporte"
// @Param company query string false "Empresa"
// @Param area query string false "Área"
// @Param point_of_sale query string false "Punto de venta"
// @Param period query string false "last_month, last_3_months, last_year"
// @Param search query string false "Texto en asunto o mensaje"
// @Success 200 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	reports, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgReportsError, err)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	common.SuccessResponse(c, "", gin.H{"reports": reports})
}

// GetMetrics godoc
// @Summary Métricas del tablero
// @Tags reports
// @Produce json
// @Success 200 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Router /reports/metrics [get]
func (h *ReportHandler) GetMetrics(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	metrics, err := h.service.Metrics(c.Request.Context(), filter)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgStatsError, err)
		return
	}
	common.SuccessResponse(c, "", gin.H{"metrics": metrics})
}

// ExportReports godoc
// @Summary Exportar reportes a Excel
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 401 {object} common.APIResponse
// @Router /reports/export [get]
func (h *ReportHandler) ExportReports(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}

	filename, file, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgExportError, err)
		return
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgExportError, err)
		return
	}

	h.audit.Record(c, middleware.AuditExport, "report", "", filename)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateStatus godoc
// @Summary Cambiar estado de un reporte
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "ID del reporte"
// @Param body body domain.UpdateStatusRequest true "Nuevo estado"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /reports/{id}/status [patch]
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, msgInvalidStatus, err)
		return
	}

	id := c.Param("id")
	report, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	switch {
	case errors.Is(err, common.ErrReportNotFound):
		common.ErrorResponse(c, http.StatusNotFound, msgReportNotFound, nil)
		return
	case errors.Is(err, common.ErrInvalidStatus):
		common.ErrorResponse(c, http.StatusBadRequest, msgInvalidStatus, nil)
		return
	case err != nil:
		common.ErrorResponse(c, http.StatusInternalServerError, msgInternalError, err)
		return
	}

	h.audit.Record(c, middleware.AuditStatusChange, "report", id, req.Status)
	common.SuccessResponse(c, msgStatusUpdated, gin.H{"report": report})
}

// ListPointsOfSale godoc
// @Summary Puntos de venta
// @Description Lista los puntos de venta, filtrados por empresa si se indica
// @Tags catalog
// @Produce json
// @Param company query string false "Empresa"
// @Success 200 {object} common.APIResponse
// @Router /points-of-sale [get]
func (h *ReportHandler) ListPointsOfSale(c *gin.Context) {
	company := ginutil.QueryFirst(c, "company", "empresa")
	common.SuccessResponse(c, "", gin.H{"points_of_sale": h.service.PointsOfSale(company)})
}

// GetFeedback godoc
// @Summary Estadísticas agregadas
// @Tags reports
// @Produce json
// @Success 200 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /feedback [get]
func (h *ReportHandler) GetFeedback(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgStatsError, err)
		return
	}
	common.SuccessResponse(c, "", gin.H{"data": stats})
}

// TestConnection godoc
// @Summary Probar conexión con la base de datos
// @Tags health
// @Produce json
// @Success 200 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /test-connection [get]
func (h *ReportHandler) TestConnection(c *gin.Context) {
	if err := h.service.Ping(c.Request.Context()); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, msgConnectionError, err)
		return
	}
	common.SuccessResponse(c, msgConnectionOK, nil)
}
