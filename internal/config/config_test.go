package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Server.Port)
	assert.True(t, cfg.Server.RequireAuthForReports)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 10*time.Second, cfg.Database.RetryIntervalDuration())
	assert.Equal(t, "comercial_venta_posventa", cfg.Catalog.PointOfSaleArea)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yamlBody := `
server:
  port: 8081
  require_auth_for_reports: false
database:
  host: db.internal
  retry_interval: 15
catalog:
  points_of_sale:
    Centromotos: ["Centro", "Norte"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("DB_HOST", "db.override")
	t.Setenv("SESSION_SECRET", "s3cr3t")
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port, "invalid env int keeps the file value")
	assert.False(t, cfg.Server.RequireAuthForReports)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 15, cfg.Database.RetryInterval)
	assert.Equal(t, "s3cr3t", cfg.Session.Secret)
	assert.Equal(t, []string{"Centro", "Norte"}, cfg.Catalog.PointsOfSale["Centromotos"])
	// untouched defaults survive the partial file
	assert.Equal(t, "etica", cfg.Database.DBName)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.S3Enabled = true
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestValidate_PlaceholderCredentialsOutsideDevelopment(t *testing.T) {
	cfg := Default()
	cfg.Server.Env = "production"
	assert.ErrorContains(t, cfg.Validate(), "SESSION_SECRET")

	cfg.Session.Secret = "prod-secret"
	assert.ErrorContains(t, cfg.Validate(), "ADMIN_PASSWORD")

	cfg.Admin.Password = "prod-password"
	assert.NoError(t, cfg.Validate())

	dev := Default()
	dev.Server.Env = "development"
	assert.NoError(t, dev.Validate(), "placeholders are tolerated locally")
}

func TestLoad_TrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1 , 10.0.0.0/8,,")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Empty(t, Default().Server.TrustedProxies)
}

func TestGetDSN(t *testing.T) {
	d := Default().Database
	d.Password = "pw"
	dsn := d.GetDSN()
	assert.Contains(t, dsn, "etica:pw@tcp(localhost:3306)/etica")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMailEnabled(t *testing.T) {
	m := MailConfig{NotificationEmail: "ops@example.com"}
	assert.False(t, m.MailEnabled())
	m.ResendAPIKey = "re_123"
	assert.True(t, m.MailEnabled())
}
