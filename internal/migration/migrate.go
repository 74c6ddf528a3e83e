package migration

import (
	"errors"
	"fmt"

	"github.com/lineaetica/etica-backend/internal/domain"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminSeed is the administrator created at first boot
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// Run executes AutoMigrate for feedback, users and audit_logs and seeds the admin if absent.
// Safe to run on every (re)connect.
func Run(db *gorm.DB, seed AdminSeed) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 컬럼만 추가
	if err := db.AutoMigrate(&domain.Report{}, &domain.User{}, &domain.AuditLog{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// 2. Seed - 같은 이메일이 없을 때만 관리자 생성
	return SeedAdmin(db, seed)
}

// SeedAdmin inserts the administrator unless a user with that email exists
func SeedAdmin(db *gorm.DB, seed AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		pkglogger.Warn("[Migration] admin seed skipped: email or password empty")
		return nil
	}

	var existing domain.User
	err := db.Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &domain.User{
		Email:        seed.Email,
		PasswordHash: string(hash),
		Name:         seed.Name,
		Role:         domain.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	pkglogger.Info("[Migration] admin user created: %s", seed.Email)
	return nil
}
