package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/pkg/database"
	"gorm.io/gorm"
)

// ReportRepository feedback table access
type ReportRepository interface {
	// Write operations
	Create(ctx context.Context, report *domain.Report) error
	UpdateStatus(ctx context.Context, id, status string) (*domain.Report, error)

	// Read operations
	ListAll(ctx context.Context) ([]domain.Report, error)
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Stats(ctx context.Context) (*domain.FeedbackStats, error)
	Ping(ctx context.Context) error
}

type reportRepository struct {
	store database.Provider
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(store database.Provider) ReportRepository {
	return &reportRepository{store: store}
}

func (r *reportRepository) conn(ctx context.Context) (*gorm.DB, error) {
	db, err := r.store.DB()
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// Create inserts one report in a single statement
func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(report).Error
}

// ListAll returns every report, newest first
func (r *reportRepository) ListAll(ctx context.Context) ([]domain.Report, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var reports []domain.Report
	if err := db.Order("fecha_creacion DESC").Order("id DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// GetByID retrieves a single report
func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var report domain.Report
	if err := db.Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// UpdateStatus changes estado, the only mutable column
func (r *reportRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Report, error) {
	if !domain.IsValidStatus(status) {
		return nil, common.ErrInvalidStatus
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	result := db.Model(&domain.Report{}).Where("id = ?", id).Update("estado", status)
	if result.Error != nil {
		return nil, result.Error
	}
	// RowsAffected is 0 on MySQL when the value is unchanged, so re-read instead
	return r.GetByID(ctx, id)
}

// Stats aggregates counts over the whole table
func (r *reportRepository) Stats(ctx context.Context) (*domain.FeedbackStats, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.FeedbackStats{}
	model := db.Model(&domain.Report{})

	if err := model.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if err := db.Model(&domain.Report{}).Where("anonymous = ?", true).Count(&stats.Anonymous).Error; err != nil {
		return nil, fmt.Errorf("count anonymous: %w", err)
	}
	stats.Identified = stats.Total - stats.Anonymous

	if stats.ByArea, err = r.groupCount(db, "area"); err != nil {
		return nil, err
	}
	if stats.ByType, err = r.groupCount(db, "type"); err != nil {
		return nil, err
	}
	stats.Areas = int64(len(stats.ByArea))
	stats.Types = int64(len(stats.ByType))

	return stats, nil
}

func (r *reportRepository) groupCount(db *gorm.DB, column string) ([]domain.CountByKey, error) {
	rows := make([]domain.CountByKey, 0)
	err := db.Model(&domain.Report{}).
		Select(column + " AS `key`, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	return rows, nil
}

// Ping round-trips to the store
func (r *reportRepository) Ping(ctx context.Context) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	var one int
	return db.Raw("SELECT 1").Scan(&one).Error
}
