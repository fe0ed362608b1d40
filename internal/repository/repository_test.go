package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.Report{},
		&domain.AnimalDetection{},
		&domain.DeterrentSettings{},
		&domain.ScanAnalytic{},
		&domain.ActivityLog{},
	))
	return db
}

func TestReportRepository_CompleteIfPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	report := &domain.Report{ImageURL: "https://example.com/a.jpg", Status: domain.ReportStatusPending, CropType: "unknown"}
	require.NoError(t, repo.Create(ctx, report))

	ok, err := repo.CompleteIfPending(ctx, report.ID, []byte(`{"severity":"low"}`), domain.SeverityLow, "rice", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompleteIfPending(ctx, report.ID, []byte(`{"severity":"high"}`), domain.SeverityHigh, "rice", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusComplete, stored.Status)
	assert.Equal(t, domain.SeverityLow, stored.Severity)
	assert.Equal(t, "rice", stored.CropType)
	require.NotNil(t, stored.ProcessedAt)

	ok, err = repo.CompleteIfPending(ctx, 999, []byte(`{}`), domain.SeverityNone, "x", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrReportNotFound)

	analyzed, err := repo.ListAnalyzed(ctx)
	require.NoError(t, err)
	assert.Len(t, analyzed, 1)
}

func TestReportRepository_BulkHelpers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		r := &domain.Report{ImageURL: "https://example.com/x.jpg", Status: domain.ReportStatusPending}
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	found, err := repo.FindByIDs(ctx, []uint{ids[0], ids[2], 404})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	deleted, err := repo.DeleteByIDs(ctx, []uint{ids[0], ids[1], 404})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = repo.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDeterrentSettingsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeterrentSettingsRepository(db)
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDeterrentSettings().Volume, got.Volume)

	require.NoError(t, repo.SeedDefaults(ctx))
	require.NoError(t, repo.SeedDefaults(ctx))

	require.NoError(t, repo.Save(ctx, &domain.DeterrentSettings{IsEnabled: true, Volume: 0, SoundType: "siren", ActivationDistance: 12.5}))
	require.NoError(t, repo.Save(ctx, &domain.DeterrentSettings{IsEnabled: true, AutoActivate: true, Volume: 0, SoundType: "siren", ActivationDistance: 12.5}))

	var count int64
	require.NoError(t, db.Model(&domain.DeterrentSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.AutoFires())
	assert.Equal(t, 0, got.Volume)
	assert.Equal(t, "siren", got.SoundType)
	assert.Equal(t, 12.5, got.ActivationDistance)
}

func TestActivityLogRepository_ListFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	for _, a := range []domain.ActivityAction{domain.ActivityDeterrent, domain.ActivitySystem, domain.ActivityDeterrent} {
		require.NoError(t, repo.Create(ctx, &domain.ActivityLog{Action: a, Details: string(a)}))
	}

	logs, err := repo.List(ctx, domain.ActivityDeterrent, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Greater(t, logs[0].ID, logs[1].ID)
}
