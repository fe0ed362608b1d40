package migration

import (
	"context"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"gorm.io/gorm"
)

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&domain.Report{},
		&domain.AnimalDetection{},
		&domain.DeterrentSettings{},
		&domain.ScanAnalytic{},
		&domain.ActivityLog{},
	}
}

// Run executes AutoMigrate and seeds the default deterrent settings row.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 컬럼만 추가
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	// 2. Seed - settings 싱글톤이 없을 때만 기본값 삽입
	return repository.NewDeterrentSettingsRepository(db).SeedDefaults(context.Background())
}

// Drop removes every service table (used by the migrate CLI --reset)
func Drop(db *gorm.DB) error {
	return db.Migrator().DropTable(Models()...)
}
