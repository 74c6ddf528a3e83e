package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.AuditLog{}))
	return db
}

func TestAuditLogger_Record(t *testing.T) {
	db := setupAuditDB(t)
	audit := NewAuditLogger(database.Static{Handle: db})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(sessionUserKey, &domain.SessionUser{ID: 1, Email: "admin@example.com", Role: domain.RoleAdmin})
		c.Set(RequestIDKey, "req-1")
		c.Next()
	})
	r.PATCH("/reports/:id/status", func(c *gin.Context) {
		audit.Record(c, AuditStatusChange, "report", c.Param("id"), "pendiente -> resuelto")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/reports/abc/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	audit.Wait()

	logs, total, err := audit.ListAuditLogs(context.Background(), "admin@example.com", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, AuditStatusChange, logs[0].Action)
	assert.Equal(t, "abc", logs[0].ResourceID)
	assert.Equal(t, "req-1", logs[0].RequestID)
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var audit *AuditLogger
	audit.Log("a", "b", "c", "d", "e", "f", "g", "h")
	audit.Wait()
}

func TestAuditLogger_ListFiltersByAction(t *testing.T) {
	db := setupAuditDB(t)
	audit := NewAuditLogger(database.Static{Handle: db})

	audit.Log("admin@example.com", AuditLogin, "session", "", "", "", "", "")
	audit.Log("admin@example.com", AuditExport, "report", "", "", "", "", "")
	audit.Log("admin@example.com", AuditExport, "report", "", "", "", "", "")
	audit.Wait()

	logs, total, err := audit.ListAuditLogs(context.Background(), "", AuditExport, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}
