package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/repository"
	"github.com/lineaetica/etica-backend/internal/service"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/lineaetica/etica-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubMonitor struct {
	up          bool
	reconnected int
}

func (m *stubMonitor) Available() bool   { return m.up }
func (m *stubMonitor) TriggerReconnect() { m.reconnected++ }

func setupReportHandler(t *testing.T, monitor service.StoreMonitor) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Report{}))

	files, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	svc := service.NewReportService(
		repository.NewReportRepository(database.Static{Handle: db}),
		dashboard.NewCatalog("comercial_venta_posventa", []string{"Centromotos"}, nil),
		files, nil, monitor,
	)
	h := NewReportHandler(svc, nil)

	r := gin.New()
	r.POST("/api/submit-report", h.SubmitReport)
	r.GET("/api/reports", h.ListReports)
	return r, db
}

func urlencodedSubmit(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/submit-report", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validValues() url.Values {
	return url.Values{
		"situation_relation": {"Víctima"},
		"area":               {"Talento Humano"},
		"tipo_reporte":       {"acoso"},
		"asunto":             {"Asunto"},
		"descripcion":        {"Descripción"},
	}
}

func TestSubmitReport_URLEncodedAliases(t *testing.T) {
	r, db := setupReportHandler(t, nil)

	w := urlencodedSubmit(r, validValues())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored domain.Report
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "acoso", stored.Type)
	assert.Equal(t, "Descripción", stored.Message)
	assert.True(t, stored.Anonymous)
}

func TestSubmitReport_StoreUnavailable(t *testing.T) {
	monitor := &stubMonitor{up: false}
	r, db := setupReportHandler(t, monitor)

	w := urlencodedSubmit(r, validValues())
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, msgInternalError, body.Message)
	assert.Equal(t, 1, monitor.reconnected)

	var count int64
	require.NoError(t, db.Model(&domain.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitReport_ValidationMessage(t *testing.T) {
	r, _ := setupReportHandler(t, nil)

	form := validValues()
	form.Del("situation_relation")
	w := urlencodedSubmit(r, form)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Relación con la situación")
}

func TestSubmitReport_MalformedMultipart(t *testing.T) {
	r, _ := setupReportHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-report", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReports_EmptyIsArray(t *testing.T) {
	r, _ := setupReportHandler(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"reports":[]}`, w.Body.String())
}
