package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/repository"
	"github.com/lineaetica/etica-backend/pkg/cache"
	"github.com/lineaetica/etica-backend/pkg/database"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"github.com/lineaetica/etica-backend/pkg/storage"
	"github.com/xuri/excelize/v2"
)

// StoreMonitor exposes store availability and the background reconnect
type StoreMonitor interface {
	Available() bool
	TriggerReconnect()
}

// ReportService intake and dashboard business logic
type ReportService struct {
	repo      repository.ReportRepository
	validator *IntakeValidator
	catalog   *dashboard.Catalog
	files     storage.Storage
	notifier  Notifier
	store     StoreMonitor
	cache     cache.Service
	now       func() time.Time
}

// NewReportService creates a new ReportService. store and notifier may be nil.
func NewReportService(
	repo repository.ReportRepository,
	catalog *dashboard.Catalog,
	files storage.Storage,
	notifier Notifier,
	store StoreMonitor,
) *ReportService {
	return &ReportService{
		repo:      repo,
		validator: NewIntakeValidator(catalog),
		catalog:   catalog,
		files:     files,
		notifier:  notifier,
		store:     store,
		now:       time.Now,
	}
}

// SetCache enables caching of the aggregate stats
func (s *ReportService) SetCache(c cache.Service) {
	s.cache = c
}

// Submit validates, stores attachments, inserts the row and fires the notification.
// The row is committed before Submit returns; the email is not awaited.
func (s *ReportService) Submit(ctx context.Context, values map[string][]string, files []*multipart.FileHeader) (*domain.Report, error) {
	report, err := s.validator.Validate(values, files)
	if err != nil {
		return nil, err
	}

	if s.store != nil && !s.store.Available() {
		s.store.TriggerReconnect()
		return nil, fmt.Errorf("submit report: %w", common.ErrStoreUnavailable)
	}

	saved, err := s.saveAttachments(ctx, files)
	if err != nil {
		return nil, err
	}

	report.ID = uuid.NewString()
	report.Status = domain.StatusPending
	report.CreatedAt = s.now()
	for _, obj := range saved {
		report.AttachmentURLs = append(report.AttachmentURLs, obj.URL)
	}

	if err := s.repo.Create(ctx, report); err != nil {
		s.removeAttachments(saved)
		return nil, s.mapStoreError("insert report", err)
	}

	s.invalidateStats(ctx)

	reportLog := pkglogger.WithReportID(report.ID)
	reportLog.Info().
		Str("type", report.Type).
		Str("area", report.Area).
		Bool("anonymous", report.Anonymous).
		Int("attachments", len(saved)).
		Msg("report submitted")

	if s.notifier != nil {
		s.notifier.NotifyAsync(report, saved)
	}

	return report, nil
}

func (s *ReportService) saveAttachments(ctx context.Context, files []*multipart.FileHeader) ([]storage.Object, error) {
	saved := make([]storage.Object, 0, len(files))
	for _, fh := range files {
		obj, err := s.saveAttachment(ctx, fh)
		if err != nil {
			s.removeAttachments(saved)
			return nil, fmt.Errorf("save attachment %s: %w", fh.Filename, err)
		}
		saved = append(saved, *obj)
	}
	return saved, nil
}

func (s *ReportService) saveAttachment(ctx context.Context, fh *multipart.FileHeader) (*storage.Object, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return s.files.Save(ctx, fh.Filename, src, fh.Header.Get("Content-Type"), fh.Size)
}

// removeAttachments runs detached from the request so cleanup survives a cancel
func (s *ReportService) removeAttachments(objects []storage.Object) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, obj := range objects {
		if err := s.files.Delete(ctx, obj.Key); err != nil {
			pkglogger.Warn("remove orphan attachment %s: %v", obj.Key, err)
		}
	}
}

// List returns the filtered reports, newest first. A point of sale that
// does not belong to the selected company is dropped from the filter.
func (s *ReportService) List(ctx context.Context, filter dashboard.Filter) ([]domain.Report, error) {
	if filter.Company != "" && s.catalog != nil {
		filter.PointOfSale = s.catalog.NormalizeSelection(filter.Company, filter.PointOfSale)
	}

	reports, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.mapStoreError("list reports", err)
	}
	return dashboard.Apply(reports, filter, s.now()), nil
}

// Metrics computes metrics over the filtered reports
func (s *ReportService) Metrics(ctx context.Context, filter dashboard.Filter) (*dashboard.Metrics, error) {
	reports, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	m := dashboard.ComputeMetrics(reports)
	return &m, nil
}

// Export writes the filtered reports to a workbook. The caller closes it.
func (s *ReportService) Export(ctx context.Context, filter dashboard.Filter) (string, *excelize.File, error) {
	reports, err := s.List(ctx, filter)
	if err != nil {
		return "", nil, err
	}
	return dashboard.Export(reports, s.now())
}

// UpdateStatus is the dashboard edit action
func (s *ReportService) UpdateStatus(ctx context.Context, id, status string) (*domain.Report, error) {
	if !domain.IsValidStatus(status) {
		return nil, common.ErrInvalidStatus
	}
	report, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, common.ErrReportNotFound) || errors.Is(err, common.ErrInvalidStatus) {
			return nil, err
		}
		return nil, s.mapStoreError("update status", err)
	}

	s.invalidateStats(ctx)

	reportLog := pkglogger.WithReportID(id)
	reportLog.Info().
		Str("status", status).
		Msg("report status updated")
	return report, nil
}

// Stats aggregates counts over all reports
func (s *ReportService) Stats(ctx context.Context) (*domain.FeedbackStats, error) {
	if s.cache != nil {
		var cached domain.FeedbackStats
		if err := s.cache.Get(ctx, cache.KeyFeedbackStats, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, s.mapStoreError("feedback stats", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyFeedbackStats, stats, cache.TTLStats); err != nil {
			pkglogger.Warn("cache feedback stats: %v", err)
		}
	}
	return stats, nil
}

func (s *ReportService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.KeyFeedbackStats); err != nil {
		pkglogger.Warn("invalidate feedback stats: %v", err)
	}
}

// PointsOfSale lists the point-of-sale options, narrowed by company when given
func (s *ReportService) PointsOfSale(company string) []string {
	if s.catalog == nil {
		return []string{}
	}
	return s.catalog.PointsOfSaleFor(company)
}

// Ping checks the store round trip
func (s *ReportService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return s.mapStoreError("ping", err)
	}
	return nil
}

// mapStoreError classifies a repository error: connectivity problems trigger
// a reconnect and become ErrStoreUnavailable, identifiable constraint
// violations become validation errors, everything else is wrapped.
func (s *ReportService) mapStoreError(op string, err error) error {
	if database.IsConnectionError(err) {
		if s.store != nil {
			s.store.TriggerReconnect()
		}
		pkglogger.Error("%s: store unavailable: %v", op, err)
		return fmt.Errorf("%s: %w", op, common.ErrStoreUnavailable)
	}

	if column, ok := database.ConstraintColumn(err); ok {
		return common.NewValidationError(column, fmt.Sprintf("El campo %s es obligatorio", fieldLabel(column)))
	}

	pkglogger.Error("%s: %v", op, err)
	return fmt.Errorf("%s: %w", op, err)
}

func fieldLabel(column string) string {
	for _, f := range requiredFields {
		if f.name == column {
			return f.label
		}
	}
	return column
}
