package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
)

const (
	defaultSessionSecret = "change-me-session-secret"
	defaultAdminPassword = "change-me-admin-password"
)

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Mail      MailConfig      `yaml:"mail"`
	Storage   StorageConfig   `yaml:"storage"`
	Admin     AdminConfig     `yaml:"admin"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port                  int      `yaml:"port"`
	Env                   string   `yaml:"env"`
	RequireAuthForReports bool     `yaml:"require_auth_for_reports"`
	MaxUploadBytes        int64    `yaml:"max_upload_bytes"`
	TrustedProxies        []string `yaml:"trusted_proxies"`
}

// DatabaseConfig MySQL settings
type DatabaseConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	DBName           string `yaml:"dbname"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	ConnMaxLifetime  int    `yaml:"conn_max_lifetime"` // seconds
	RetryInterval    int    `yaml:"retry_interval"`    // seconds
	RetryMaxAttempts int    `yaml:"retry_max_attempts"`
}

// RedisConfig Redis settings; an empty host disables Redis
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// SessionConfig admin session settings
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	CookieName string `yaml:"cookie_name"`
	TTLHours   int    `yaml:"ttl_hours"`
	Secure     bool   `yaml:"secure"`
}

// MailConfig notification settings
type MailConfig struct {
	ResendAPIKey      string `yaml:"resend_api_key"`
	SMTPHost          string `yaml:"smtp_host"`
	SMTPPort          int    `yaml:"smtp_port"`
	SMTPUsername      string `yaml:"smtp_username"`
	SMTPPassword      string `yaml:"smtp_password"`
	From              string `yaml:"from"`
	NotificationEmail string `yaml:"notification_email"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

// StorageConfig attachment storage. Local disk unless S3 is enabled.
type StorageConfig struct {
	UploadDir       string `yaml:"upload_dir"`
	PublicPrefix    string `yaml:"public_prefix"`
	S3Enabled       bool   `yaml:"s3_enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// AdminConfig seeded administrator credential
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// RateLimitConfig per-IP rate limiting (needs Redis); 0 disables
type RateLimitConfig struct {
	SubmitPerMinute int `yaml:"submit_per_minute"`
	LoginPerMinute  int `yaml:"login_per_minute"`
}

// CatalogConfig companies and their points of sale
type CatalogConfig struct {
	PointOfSaleArea string              `yaml:"point_of_sale_area"`
	Companies       []string            `yaml:"companies"`
	PointsOfSale    map[string][]string `yaml:"points_of_sale"`
}

// Default returns a configuration with safe, credential-free defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  10000,
			Env:                   "local",
			RequireAuthForReports: true,
			MaxUploadBytes:        32 << 20,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "etica",
			DBName:          "etica",
			MaxIdleConns:    5,
			MaxOpenConns:    10,
			ConnMaxLifetime: 300,
			RetryInterval:   10,
		},
		Redis: RedisConfig{
			Port:     6379,
			PoolSize: 10,
		},
		Session: SessionConfig{
			Secret:     defaultSessionSecret,
			CookieName: "etica_session",
			TTLHours:   24,
		},
		Mail: MailConfig{
			SMTPPort:       587,
			From:           "noreply@lineaetica.local",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			UploadDir:    "uploads",
			PublicPrefix: "/uploads",
		},
		Admin: AdminConfig{
			Email:    "admin@lineaetica.local",
			Password: defaultAdminPassword,
			Name:     "Administrador",
		},
		CORS: CORSConfig{AllowOrigins: "http://localhost:3000"},
		RateLimit: RateLimitConfig{
			SubmitPerMinute: 10,
			LoginPerMinute:  20,
		},
		Catalog: CatalogConfig{
			PointOfSaleArea: "comercial_venta_posventa",
			Companies: []string{
				"Centromotos", "Distrimotos", "Credimotos", "Credimovil", "Motomovil",
				"Sabanamotos", "Motocredito", "Motos Del Aburra", "Fintotal",
				"Motoracing", "Motos Del Darien",
			},
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		pkglogger.Warn("config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("session ttl_hours must be positive")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret must not be empty")
	}
	if !c.IsDevelopment() {
		if c.Session.Secret == defaultSessionSecret {
			return fmt.Errorf("SESSION_SECRET must be set outside development")
		}
		if c.Admin.Password == defaultAdminPassword {
			return fmt.Errorf("ADMIN_PASSWORD must be set outside development")
		}
	}
	if c.Database.RetryInterval <= 0 {
		return fmt.Errorf("database retry_interval must be positive")
	}
	if c.Storage.S3Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required when s3 is enabled")
	}
	return nil
}

// IsDevelopment reports whether the app runs in a local/dev environment
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// SessionTTL returns the session lifetime
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// RetryIntervalDuration returns the store reconnect interval
func (d DatabaseConfig) RetryIntervalDuration() time.Duration {
	return time.Duration(d.RetryInterval) * time.Second
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	mc := mysqldriver.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	mc.DBName = d.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// MailEnabled reports whether any mail provider is configured
func (m MailConfig) MailEnabled() bool {
	return m.NotificationEmail != "" && (m.ResendAPIKey != "" || m.SMTPHost != "")
}

// LogResolved logs the effective non-secret configuration
func LogResolved(cfg *Config) {
	l := pkglogger.GetLogger()
	l.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("db_addr", fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)).
		Str("db_name", cfg.Database.DBName).
		Str("db_user", cfg.Database.User).
		Bool("redis", cfg.Redis.Host != "").
		Bool("mail", cfg.Mail.MailEnabled()).
		Bool("s3", cfg.Storage.S3Enabled).
		Bool("reports_require_auth", cfg.Server.RequireAuthForReports).
		Strs("trusted_proxies", cfg.Server.TrustedProxies).
		Msg("configuration resolved")

	if cfg.Session.Secret == defaultSessionSecret {
		l.Warn().Msg("SESSION_SECRET is not set; using the built-in placeholder secret")
	}
	if cfg.Admin.Password == defaultAdminPassword {
		l.Warn().Msg("ADMIN_PASSWORD is not set; the seeded administrator uses the placeholder password")
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "PORT")
	setBool(&cfg.Server.RequireAuthForReports, "REQUIRE_AUTH_FOR_REPORTS")
	setList(&cfg.Server.TrustedProxies, "TRUSTED_PROXIES")

	setString(&cfg.Database.Host, "DB_SERVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_DATABASE")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.Database.RetryInterval, "DB_RETRY_INTERVAL")
	setInt(&cfg.Database.RetryMaxAttempts, "DB_RETRY_MAX_ATTEMPTS")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setBool(&cfg.Session.Secure, "SESSION_COOKIE_SECURE")

	setString(&cfg.Mail.ResendAPIKey, "RESEND_API_KEY")
	setString(&cfg.Mail.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Mail.SMTPPort, "SMTP_PORT")
	setString(&cfg.Mail.SMTPUsername, "SMTP_USERNAME")
	setString(&cfg.Mail.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Mail.From, "FROM_EMAIL")
	setString(&cfg.Mail.NotificationEmail, "NOTIFICATION_EMAIL")

	setString(&cfg.Storage.UploadDir, "UPLOAD_DIR")
	setBool(&cfg.Storage.S3Enabled, "S3_ENABLED")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.Region, "S3_REGION")
	setString(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")

	setString(&cfg.Admin.Email, "ADMIN_EMAIL")
	setString(&cfg.Admin.Password, "ADMIN_PASSWORD")

	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	list := []string{}
	for _, part := range strings.Split(v, ",") {
		if item := strings.TrimSpace(part); item != "" {
			list = append(list, item)
		}
	}
	*dst = list
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		pkglogger.Warn("invalid integer for %s: %q", key, v)
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		pkglogger.Warn("invalid boolean for %s: %q", key, v)
		return
	}
	*dst = b
}
