package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/config"
	"github.com/lineaetica/etica-backend/internal/handler"
	"github.com/lineaetica/etica-backend/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// NewEngine creates the gin engine. Forwarded client addresses are honoured
// only from server.trusted_proxies; with none configured the socket peer is
// the client IP used for rate limiting.
func NewEngine(cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return router, nil
}

// Setup configures all API routes. redisClient may be nil (no rate limiting).
func Setup(
	router *gin.Engine,
	reportHandler *handler.ReportHandler,
	authHandler *handler.AuthHandler,
	auditHandler *handler.AuditHandler,
	healthHandler *handler.HealthHandler,
	auth middleware.Authenticator,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	cookieName := cfg.Session.CookieName
	requireSession := middleware.RequireSession(auth, cookieName)

	router.GET("/health", healthHandler.Health)

	// Adjuntos subidos (solo lectura)
	if !cfg.Storage.S3Enabled && cfg.Storage.UploadDir != "" {
		router.Static(cfg.Storage.PublicPrefix, cfg.Storage.UploadDir)
	}

	api := router.Group("/api", middleware.OptionalSession(auth, cookieName))

	// Intake (public)
	api.POST("/submit-report",
		middleware.IPProtection(middleware.LoadIPProtectionConfig()),
		middleware.RateLimit(redisClient, middleware.SubmitRateLimitConfig(cfg.RateLimit.SubmitPerMinute)),
		middleware.BodyLimit(cfg.Server.MaxUploadBytes),
		reportHandler.SubmitReport,
	)
	api.GET("/points-of-sale", reportHandler.ListPointsOfSale)
	api.GET("/feedback", reportHandler.GetFeedback)
	api.GET("/test-connection", reportHandler.TestConnection)

	// Authentication
	authGroup := api.Group("/auth")
	authGroup.POST("/login",
		middleware.RateLimit(redisClient, middleware.LoginRateLimitConfig(cfg.RateLimit.LoginPerMinute)),
		authHandler.Login,
	)
	authGroup.GET("/verify", authHandler.Verify)
	authGroup.POST("/logout", authHandler.Logout)

	// Dashboard reads: protected unless the deployment opts out
	reports := api.Group("/reports", middleware.NoStore())
	if cfg.Server.RequireAuthForReports {
		reports.Use(requireSession)
	}
	reports.GET("", reportHandler.ListReports)
	reports.GET("/metrics", reportHandler.GetMetrics)
	reports.GET("/export", reportHandler.ExportReports)

	// Mutations always need an admin session
	statusChain := []gin.HandlerFunc{middleware.RequireAdmin(), reportHandler.UpdateStatus}
	if !cfg.Server.RequireAuthForReports {
		statusChain = append([]gin.HandlerFunc{requireSession}, statusChain...)
	}
	reports.PATCH("/:id/status", statusChain...)

	api.GET("/audit-logs", requireSession, middleware.RequireAdmin(), middleware.NoStore(), auditHandler.ListAuditLogs)
}
