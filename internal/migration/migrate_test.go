package migration

import (
	"testing"

	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestRun_CreatesTablesAndSeedsAdmin(t *testing.T) {
	db := setupDB(t)
	seed := AdminSeed{Email: "admin@example.com", Password: "s3cret", Name: "Admin"}

	require.NoError(t, Run(db, seed))

	assert.True(t, db.Migrator().HasTable("feedback"))
	assert.True(t, db.Migrator().HasTable("users"))

	var user domain.User
	require.NoError(t, db.Where("email = ?", seed.Email).First(&user).Error)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestRun_Idempotent(t *testing.T) {
	db := setupDB(t)
	seed := AdminSeed{Email: "admin@example.com", Password: "s3cret", Name: "Admin"}

	require.NoError(t, Run(db, seed))
	require.NoError(t, Run(db, AdminSeed{Email: "admin@example.com", Password: "other", Name: "Other"}))

	var count int64
	db.Model(&domain.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var user domain.User
	require.NoError(t, db.First(&user).Error)
	assert.Equal(t, "Admin", user.Name)
}

func TestSeedAdmin_SkipsEmptyCredential(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	require.NoError(t, SeedAdmin(db, AdminSeed{Email: "admin@example.com"}))

	var count int64
	db.Model(&domain.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRun_EnforcesNonEmptyMessage(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, Run(db, AdminSeed{}))

	err := db.Create(&domain.Report{
		ID:                "r-1",
		SituationRelation: "Empleado",
		Area:              "ventas",
		Type:              "fraude",
		Subject:           "Caja",
		Message:           "   ",
		Status:            domain.StatusPending,
	}).Error
	assert.Error(t, err)
}
