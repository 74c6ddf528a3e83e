package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/pkg/database"
	"gorm.io/gorm"
)

// UserRepository users table access
type UserRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateLastAccess(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	store database.Provider
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(store database.Provider) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) conn(ctx context.Context) (*gorm.DB, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// FindActiveByEmail finds an active user by email
func (r *userRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, "email = ? AND activo = ?", email, true)
}

// FindByEmail finds a user by email regardless of the active flag
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, "email = ?", email)
}

func (r *userRepository) find(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(user).Error
}

// UpdateLastAccess stamps ultimo_acceso
func (r *userRepository) UpdateLastAccess(ctx context.Context, id uint, at time.Time) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&domain.User{}).Where("id = ?", id).Update("ultimo_acceso", at).Error
}
