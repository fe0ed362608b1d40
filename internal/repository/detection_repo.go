package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gorm.io/gorm"
)

// AnimalDetectionRepository handles wildlife detection persistence
type AnimalDetectionRepository struct {
	db *gorm.DB
}

// NewAnimalDetectionRepository creates a new AnimalDetectionRepository
func NewAnimalDetectionRepository(db *gorm.DB) *AnimalDetectionRepository {
	return &AnimalDetectionRepository{db: db}
}

// Create inserts a detection
func (r *AnimalDetectionRepository) Create(ctx context.Context, d *domain.AnimalDetection) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// FindByID retrieves a detection
func (r *AnimalDetectionRepository) FindByID(ctx context.Context, id uint) (*domain.AnimalDetection, error) {
	var d domain.AnimalDetection
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrDetectionNotFound
		}
		return nil, err
	}
	return &d, nil
}

// MarkDeterred flips a detection to deterred exactly once.
// Returns false if it was already activated.
func (r *AnimalDetectionRepository) MarkDeterred(ctx context.Context, id uint, frequencyKHz float64, volume int, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.AnimalDetection{}).
		Where("id = ? AND deterrent_activated = ?", id, false).
		Updates(map[string]interface{}{
			"status":              domain.DetectionStatusDeterred,
			"deterrent_activated": true,
			"frequency_khz":       frequencyKHz,
			"volume":              volume,
			"deterred_at":         at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListRecent retrieves the newest detections
func (r *AnimalDetectionRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnimalDetection, error) {
	var detections []domain.AnimalDetection
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&detections).Error; err != nil {
		return nil, err
	}
	return detections, nil
}

// ListSince retrieves detections created at or after since
func (r *AnimalDetectionRepository) ListSince(ctx context.Context, since time.Time) ([]domain.AnimalDetection, error) {
	var detections []domain.AnimalDetection
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC, id DESC").
		Find(&detections).Error; err != nil {
		return nil, err
	}
	return detections, nil
}
