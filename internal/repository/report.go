package repository

import (
	"context"
	"log/slog"
	"time"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository stores moderation reports. Reports are never deleted.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByStatus(ctx context.Context, status models.ReportStatus, limit, offset int) ([]*models.Report, error)
	MarkResolved(ctx context.Context, id, adminID uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error)
}

type reportRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db, logger: observability.NewRepoLogger("reports")}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return err
	}
	r.logger.LogCreate(ctx, slog.Any("report_id", report.ID), slog.Any("post_id", report.PostID))
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByStatus returns one partition of the report set, newest first.
func (r *reportRepository) ListByStatus(
	ctx context.Context,
	status models.ReportStatus,
	limit, offset int,
) ([]*models.Report, error) {
	var reports []*models.Report
	err := readDB(r.db).WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

// MarkResolved moves a pending report to resolved. It reports false when the report was not pending.
func (r *reportRepository) MarkResolved(ctx context.Context, id, adminID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusResolved,
			"resolved_by": adminID,
			"resolved_at": at,
		})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "resolve")
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.logger.LogUpdate(ctx, slog.Any("report_id", id), slog.Any("status", models.ReportStatusResolved))
	return true, nil
}

func (r *reportRepository) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Report{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
