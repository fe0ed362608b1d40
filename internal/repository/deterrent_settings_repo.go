package repository

import (
	"context"
	"errors"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeterrentSettingsRepository reads and writes the singleton settings row
type DeterrentSettingsRepository struct {
	db *gorm.DB
}

// NewDeterrentSettingsRepository creates a new DeterrentSettingsRepository
func NewDeterrentSettingsRepository(db *gorm.DB) *DeterrentSettingsRepository {
	return &DeterrentSettingsRepository{db: db}
}

// Get returns the stored settings, or the safe defaults when no row exists
func (r *DeterrentSettingsRepository) Get(ctx context.Context) (domain.DeterrentSettings, error) {
	var s domain.DeterrentSettings
	err := r.db.WithContext(ctx).First(&s, domain.DeterrentSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultDeterrentSettings(), nil
	}
	if err != nil {
		return domain.DeterrentSettings{}, err
	}
	return s, nil
}

// Save upserts the singleton row
func (r *DeterrentSettingsRepository) Save(ctx context.Context, s *domain.DeterrentSettings) error {
	s.ID = domain.DeterrentSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(s).Error
}

// SeedDefaults inserts the default row if none exists
func (r *DeterrentSettingsRepository) SeedDefaults(ctx context.Context) error {
	defaults := domain.DefaultDeterrentSettings()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults).Error
}
