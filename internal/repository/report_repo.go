package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportRepository handles report persistence
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ReportRepository) WithTx(tx *gorm.DB) *ReportRepository {
	return &ReportRepository{db: tx}
}

// Create inserts a new report
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// FindByID retrieves a report; returns common.ErrReportNotFound when absent
func (r *ReportRepository) FindByID(ctx context.Context, id uint) (*domain.Report, error) {
	var report domain.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// List retrieves all reports, newest first
func (r *ReportRepository) List(ctx context.Context) ([]domain.Report, error) {
	var reports []domain.Report
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ListAnalyzed retrieves every report that carries an analysis
func (r *ReportRepository) ListAnalyzed(ctx context.Context) ([]domain.Report, error) {
	var reports []domain.Report
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.ReportStatusComplete).
		Order("created_at DESC, id DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// CompleteIfPending atomically moves a pending report to complete.
// Returns false when the report was no longer pending (or no longer exists).
func (r *ReportRepository) CompleteIfPending(ctx context.Context, id uint, analysis []byte, severity domain.Severity, cropType string, processedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.ReportStatusComplete,
			"analysis":     datatypes.JSON(analysis),
			"severity":     severity,
			"crop_type":    cropType,
			"processed_at": processedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes a single report
func (r *ReportRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Report{}, id).Error
}

// FindByIDs retrieves the reports that exist among ids
func (r *ReportRepository) FindByIDs(ctx context.Context, ids []uint) ([]domain.Report, error) {
	var reports []domain.Report
	if len(ids) == 0 {
		return reports, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// DeleteByIDs removes reports in bulk
func (r *ReportRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Report{})
	return result.RowsAffected, result.Error
}
