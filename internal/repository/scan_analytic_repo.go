package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gorm.io/gorm"
)

// ScanAnalyticRepository handles the append-only scan analytics table
type ScanAnalyticRepository struct {
	db *gorm.DB
}

// NewScanAnalyticRepository creates a new ScanAnalyticRepository
func NewScanAnalyticRepository(db *gorm.DB) *ScanAnalyticRepository {
	return &ScanAnalyticRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ScanAnalyticRepository) WithTx(tx *gorm.DB) *ScanAnalyticRepository {
	return &ScanAnalyticRepository{db: tx}
}

// Create appends an analytic row
func (r *ScanAnalyticRepository) Create(ctx context.Context, a *domain.ScanAnalytic) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindByID retrieves an analytic row
func (r *ScanAnalyticRepository) FindByID(ctx context.Context, id uint) (*domain.ScanAnalytic, error) {
	var a domain.ScanAnalytic
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrAnalyticNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CountSince counts rows created at or after since
func (r *ScanAnalyticRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ScanAnalytic{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
