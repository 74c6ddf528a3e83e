package middleware

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/lineaetica/etica-backend/pkg/logger"
)

// Audit actions
const (
	AuditLogin        = "login"
	AuditLogout       = "logout"
	AuditStatusChange = "status_change"
	AuditExport       = "export"
)

// AuditLogger handles writing audit log entries
type AuditLogger struct {
	store database.Provider
	wg    sync.WaitGroup
}

// NewAuditLogger creates a new AuditLogger. The audit_logs table is created
// by the migration hook.
func NewAuditLogger(store database.Provider) *AuditLogger {
	return &AuditLogger{store: store}
}

// Record writes an audit entry for the current request's admin
func (a *AuditLogger) Record(c *gin.Context, action, resource, resourceID, details string) {
	email := ""
	if user := GetSessionUser(c); user != nil {
		email = user.Email
	}
	a.Log(email, action, resource, resourceID, details, GetClientIP(c), c.Request.UserAgent(), c.GetString(RequestIDKey))
}

// RecordAs writes an audit entry for a user that has no session yet (login)
func (a *AuditLogger) RecordAs(c *gin.Context, email, action, details string) {
	a.Log(email, action, "session", "", details, GetClientIP(c), c.Request.UserAgent(), c.GetString(RequestIDKey))
}

// Log writes an audit entry to the database without blocking the request
func (a *AuditLogger) Log(userEmail, action, resource, resourceID, details, clientIP, userAgent, requestID string) {
	if a == nil || a.store == nil {
		return
	}

	entry := &domain.AuditLog{
		UserEmail:  userEmail,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		ClientIP:   clientIP,
		UserAgent:  userAgent,
		RequestID:  requestID,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		db, err := a.store.DB()
		if err == nil {
			err = db.Create(entry).Error
		}
		if err != nil {
			logger.GetLogger().Error().Err(err).
				Str("action", action).
				Str("user", userEmail).
				Msg("audit log write failed")
		}
	}()
}

// Wait blocks until pending audit writes finish
func (a *AuditLogger) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}

// ListAuditLogs retrieves paginated audit logs with optional filters
func (a *AuditLogger) ListAuditLogs(ctx context.Context, userEmail, action string, page, perPage int) ([]domain.AuditLog, int64, error) {
	db, err := a.store.DB()
	if err != nil {
		return nil, 0, err
	}

	var logs []domain.AuditLog
	var total int64

	query := db.WithContext(ctx).Model(&domain.AuditLog{})
	if userEmail != "" {
		query = query.Where("user_email = ?", userEmail)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err = query.Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error

	return logs, total, err
}
