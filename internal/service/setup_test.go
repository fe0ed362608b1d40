package service

import (
	"context"
	"sync"
	"testing"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/migration"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/pkg/cache"
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

	// every pooled connection to :memory: would be a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migration.Run(db))
	return db
}

// fakeModel is a VisionModel returning a canned reply
type fakeModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int
	prompt string
	image  string
}

func (m *fakeModel) AnalyzeImage(_ context.Context, prompt, image string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompt = prompt
	m.image = image
	return m.reply, m.err
}

func (m *fakeModel) ModelID() string { return "fake-vision-1" }

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingPublisher captures published deterrent commands
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, msg interface{}) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return 1, nil
}

func (p *recordingPublisher) Commands() []domain.DeterrentCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.DeterrentCommand
	for _, m := range p.msgs {
		if cmd, ok := m.(domain.DeterrentCommand); ok {
			out = append(out, cmd)
		}
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	model      *fakeModel
	publisher  *recordingPublisher
	activity   *ActivityService
	deterrent  *DeterrentService
	reports    *ReportService
	admin      *AdminService
	automation *AutomationService
	settings   *repository.DeterrentSettingsRepository
	detections *repository.AnimalDetectionRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	noCache := cache.NewService(nil)

	env := &testEnv{
		db:         db,
		model:      &fakeModel{},
		publisher:  &recordingPublisher{},
		settings:   repository.NewDeterrentSettingsRepository(db),
		detections: repository.NewAnimalDetectionRepository(db),
	}
	env.activity = NewActivityService(repository.NewActivityLogRepository(db), nil, "")
	env.deterrent = NewDeterrentService(env.detections, env.settings, env.activity, noCache, env.publisher)
	env.reports = NewReportService(db, env.activity, env.deterrent, NewAnalysisInvoker(env.model), nil, noCache)
	env.admin = NewAdminService(repository.NewReportRepository(db), repository.NewScanAnalyticRepository(db), noCache)
	env.automation = NewAutomationService(env.detections, repository.NewScanAnalyticRepository(db), env.settings, noCache)
	return env
}

func (e *testEnv) enableDeterrent(t *testing.T, activationDistance float64) {
	t.Helper()
	require.NoError(t, e.settings.Save(context.Background(), &domain.DeterrentSettings{
		IsEnabled:          true,
		AutoActivate:       true,
		Volume:             70,
		SoundType:          "ultrasonic",
		ActivationDistance: activationDistance,
	}))
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func percent(v float64) *domain.Percent {
	p := domain.Percent(v)
	return &p
}
