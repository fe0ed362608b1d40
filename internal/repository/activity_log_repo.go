package repository

import (
	"context"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gorm.io/gorm"
)

// ActivityLogRepository handles the append-only activity log
type ActivityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository
func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ActivityLogRepository) WithTx(tx *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: tx}
}

// Create appends an entry
func (r *ActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List retrieves the newest entries, optionally filtered by action
func (r *ActivityLogRepository) List(ctx context.Context, action domain.ActivityAction, limit int) ([]domain.ActivityLog, error) {
	var logs []domain.ActivityLog
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
