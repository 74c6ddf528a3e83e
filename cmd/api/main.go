package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lineaetica/etica-backend/internal/config"
	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/handler"
	"github.com/lineaetica/etica-backend/internal/middleware"
	"github.com/lineaetica/etica-backend/internal/migration"
	"github.com/lineaetica/etica-backend/internal/repository"
	"github.com/lineaetica/etica-backend/internal/routes"
	"github.com/lineaetica/etica-backend/internal/service"
	pkgcache "github.com/lineaetica/etica-backend/pkg/cache"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/lineaetica/etica-backend/pkg/jwt"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"github.com/lineaetica/etica-backend/pkg/mailer"
	pkgredis "github.com/lineaetica/etica-backend/pkg/redis"
	"github.com/lineaetica/etica-backend/pkg/session"
	pkgstorage "github.com/lineaetica/etica-backend/pkg/storage"
)

// @title           Línea Ética API
// @version         1.0
// @description     Recepción de reportes de la línea ética y tablero de revisión
//
// @host            localhost:10000
// @BasePath        /api
//
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name etica_session

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Report store: schema + admin seed run on every (re)connect
	connector := initStore(cfg)
	defer connector.Close()

	// Redis (optional): sessions, rate limiting, stats cache
	var redisClient *goredis.Client
	redisOpts := pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	if redisOpts.Enabled() {
		redisClient, err = pkgredis.NewClient(context.Background(), redisOpts)
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
			defer redisClient.Close()
		}
	}

	var sessions session.Store
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient)
	} else {
		pkglogger.Warn("Sessions are kept in memory; they will not survive a restart")
		sessions = session.NewMemoryStore()
	}

	files, err := initStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to init attachment storage: %v", err)
	}

	notifier := service.NewNotificationService(
		initMailer(cfg),
		files,
		cfg.Mail.From,
		cfg.Mail.NotificationEmail,
		time.Duration(cfg.Mail.TimeoutSeconds)*time.Second,
	)

	catalog := dashboard.NewCatalog(cfg.Catalog.PointOfSaleArea, cfg.Catalog.Companies, cfg.Catalog.PointsOfSale)

	// Repositories / services
	reportRepo := repository.NewReportRepository(connector)
	userRepo := repository.NewUserRepository(connector)

	reportService := service.NewReportService(reportRepo, catalog, files, notifier, connector)
	if redisClient != nil {
		reportService.SetCache(pkgcache.NewService(redisClient))
	}

	jwtManager := jwt.NewManager(cfg.Session.Secret, cfg.SessionTTL())
	authService := service.NewAuthService(userRepo, sessions, jwtManager)

	audit := middleware.NewAuditLogger(connector)

	// Handlers
	reportHandler := handler.NewReportHandler(reportService, audit)
	authHandler := handler.NewAuthHandler(authService, cfg.Session, audit)
	auditHandler := handler.NewAuditHandler(audit)
	healthHandler := handler.NewHealthHandler(connector)

	// Gin 라우터 생성
	router, err := routes.NewEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	corsConfig := cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Content-Disposition"},
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, reportHandler, authHandler, auditHandler, healthHandler, authService, redisClient, cfg)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Ruta no encontrada"})
	})

	go reportPoolSize(connector)

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server shutdown: %v", err)
	}

	// in-flight notification emails and audit writes
	notifier.Wait()
	audit.Wait()
	pkglogger.Info("Server stopped")
}

// initStore builds the reconnecting MySQL connector. A failed first connect
// is not fatal: the service starts degraded and retries in the background.
func initStore(cfg *config.Config) *database.Connector {
	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	seed := migration.AdminSeed{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	}

	connector := database.NewConnector(
		database.MySQLOpener(cfg.Database.GetDSN(), database.PoolConfig{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		}, logLevel),
		database.RetryPolicy{
			Interval:    cfg.Database.RetryIntervalDuration(),
			MaxAttempts: cfg.Database.RetryMaxAttempts,
		},
		func(db *gorm.DB) error { return migration.Run(db, seed) },
	)
	connector.OnStateChange = func(available bool) {
		middleware.SetStoreAvailable(available)
		if available {
			pkglogger.Info("Report store connected")
		} else {
			pkglogger.Warn("Report store unavailable")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := connector.Connect(ctx); err != nil {
		pkglogger.Warn("Failed to connect to MySQL: %v (retrying in background)", err)
		middleware.SetStoreAvailable(false)
		connector.TriggerReconnect()
	}
	return connector
}

// initStorage selects S3-compatible storage when enabled, local disk otherwise
func initStorage(cfg *config.Config) (pkgstorage.Storage, error) {
	if cfg.Storage.S3Enabled {
		s3, err := pkgstorage.NewS3Storage(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		pkglogger.Info("Attachments stored in bucket %s", cfg.Storage.Bucket)
		return s3, nil
	}

	local, err := pkgstorage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
	if err != nil {
		return nil, err
	}
	pkglogger.Info("Attachments stored in %s", local.Dir())
	return local, nil
}

// initMailer picks Resend, then SMTP; nil disables notifications
func initMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.Mail.MailEnabled() {
		pkglogger.Warn("Mail not configured; report notifications are disabled")
		return nil
	}
	if cfg.Mail.ResendAPIKey != "" {
		return mailer.NewResendMailer(cfg.Mail.ResendAPIKey)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
	})
}

// reportPoolSize publishes the open connection count every 15s
func reportPoolSize(connector *database.Connector) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		middleware.SetDBConnectionsOpen(connector.OpenConnections())
	}
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
