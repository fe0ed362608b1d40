package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wildlifeReply = `{
  "diseaseDetected": false,
  "pestsDetected": false,
  "animalsDetected": true,
  "severity": "low",
  "cropType": "maize",
  "summary": "A wild boar near the field edge",
  "diseases": [],
  "pests": [],
  "animals": [{"type": "wild_boar", "name": "Wild Boar", "confidence": "90%", "estimatedDistance": 200, "count": 1}]
}`

// analyzerFunc adapts a function to ReportAnalyzer
type analyzerFunc func(ctx context.Context, image, lang string) (*domain.Analysis, *domain.ModelMetadata)

func (f analyzerFunc) Analyze(ctx context.Context, image, lang string) (*domain.Analysis, *domain.ModelMetadata) {
	return f(ctx, image, lang)
}

// memoryStore is an in-memory ImageStore
type memoryStore struct {
	mu      sync.Mutex
	stored  [][]byte
	deleted []string
}

func (m *memoryStore) StoreImage(_ context.Context, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, data)
	return "https://cdn.example.com/captures/" + strings.TrimPrefix(contentType, "image/"), nil
}

func (m *memoryStore) DeleteImage(_ context.Context, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, imageURL)
	return nil
}

func captureURL(t *testing.T, env *testEnv, lang string) *domain.Report {
	t.Helper()
	report, err := env.reports.Capture(context.Background(), &domain.CaptureReportRequest{
		Image:    "https://example.com/leaf.jpg",
		Language: lang,
	})
	require.NoError(t, err)
	return report
}

func TestReportService_Capture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.reports.Capture(ctx, &domain.CaptureReportRequest{
		Image:    "  https://example.com/leaf.jpg ",
		CropType: "Tomato",
		Language: "hi",
	})
	require.NoError(t, err)
	assert.NotZero(t, report.ID)
	assert.Equal(t, domain.ReportStatusPending, report.Status)
	assert.Equal(t, "https://example.com/leaf.jpg", report.ImageURL)
	assert.Equal(t, "Tomato", report.CropType)
	assert.Equal(t, "hi", report.Language)
	assert.False(t, report.HasAnalysis())

	report, err = env.reports.Capture(ctx, &domain.CaptureReportRequest{Image: "data:image/png;base64,cG5nLWJ5dGVz"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCropType, report.CropType)
	assert.Equal(t, "en", report.Language)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", report.ImageURL)
}

func TestReportService_CaptureValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.CaptureReportRequest
	}{
		{"empty image", domain.CaptureReportRequest{Image: "   "}},
		{"unsupported scheme", domain.CaptureReportRequest{Image: "ftp://example.com/a.jpg"}},
		{"relative path", domain.CaptureReportRequest{Image: "/tmp/a.jpg"}},
		{"bad base64", domain.CaptureReportRequest{Image: "data:image/png;base64,!!!"}},
		{"not an image", domain.CaptureReportRequest{Image: "data:text/plain;base64,aGVsbG8="}},
		{"bad language", domain.CaptureReportRequest{Image: "https://example.com/a.jpg", Language: "@@"}},
		{"crop too long", domain.CaptureReportRequest{Image: "https://example.com/a.jpg", CropType: strings.Repeat("x", 65)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reports.Capture(ctx, &tt.req)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
	assert.Zero(t, env.count(t, &domain.Report{}))
}

func TestReportService_CaptureStoresDataURI(t *testing.T) {
	env := newTestEnv(t)
	store := &memoryStore{}
	env.reports.store = store

	report, err := env.reports.Capture(context.Background(), &domain.CaptureReportRequest{Image: "data:image/png;base64,cG5nLWJ5dGVz"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/captures/png", report.ImageURL)
	require.Len(t, store.stored, 1)
	assert.Equal(t, []byte("png-bytes"), store.stored[0])

	require.NoError(t, env.reports.Delete(context.Background(), report.ID))
	assert.Equal(t, []string{report.ImageURL}, store.deleted)
}

func TestReportService_ProcessComplete(t *testing.T) {
	env := newTestEnv(t)
	env.model.reply = "```json\n" + validReply + "\n```"
	ctx := context.Background()
	report := captureURL(t, env, "")

	processed, err := env.reports.Process(ctx, report.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusComplete, processed.Status)
	assert.NotNil(t, processed.ProcessedAt)
	assert.Equal(t, "tomato", processed.CropType)
	assert.Equal(t, domain.SeverityMedium, processed.Severity)

	stored, err := env.reports.Get(ctx, report.ID)
	require.NoError(t, err)
	a, err := stored.DecodeAnalysis()
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.DiseaseDetected)
	assert.False(t, a.Degraded)
	assert.Equal(t, 55, a.OverallHealth)
	assert.InDelta(t, 80.0, a.AverageConfidence, 1e-9)
	assert.True(t, a.LeafDamage)
	require.NotNil(t, a.ModelMetadata)
	assert.Equal(t, "fake-vision-1", a.ModelMetadata.ModelID)

	var scan domain.ScanAnalytic
	require.NoError(t, env.db.First(&scan).Error)
	assert.Equal(t, report.ID, scan.ReportID)
	assert.Equal(t, domain.CategoryDisease, scan.DetectionType)
	assert.Equal(t, "Early Blight", scan.DetectionName)
	assert.InDelta(t, 0.8, scan.Confidence, 1e-9)

	var logs []domain.ActivityLog
	require.NoError(t, env.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActivityDetection, logs[0].Action)
}

func TestReportService_ProcessUsesReportLanguage(t *testing.T) {
	env := newTestEnv(t)
	env.model.reply = validReply
	report := captureURL(t, env, "hi")

	_, err := env.reports.Process(context.Background(), report.ID, "")
	require.NoError(t, err)
	assert.Contains(t, env.model.prompt, "Hindi")
	assert.Equal(t, report.ImageURL, env.model.image)
}

func TestReportService_ProcessUnparseableReply(t *testing.T) {
	env := newTestEnv(t)
	env.model.reply = "I'm sorry, I cannot analyse this photo."
	report := captureURL(t, env, "")

	processed, err := env.reports.Process(context.Background(), report.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusComplete, processed.Status)

	a, err := processed.DecodeAnalysis()
	require.NoError(t, err)
	assert.False(t, a.DiseaseDetected)
	assert.True(t, a.Degraded)
	assert.Equal(t, 100, a.OverallHealth)
	assert.Equal(t, domain.DefaultCropType, a.CropType)

	var scan domain.ScanAnalytic
	require.NoError(t, env.db.First(&scan).Error)
	assert.True(t, scan.Degraded)
	assert.Equal(t, domain.CategoryHealthy, scan.DetectionType)
}

func TestReportService_ProcessModelError(t *testing.T) {
	env := newTestEnv(t)
	env.model.err = errors.New("timeout")
	report := captureURL(t, env, "")

	processed, err := env.reports.Process(context.Background(), report.ID, "")
	require.NoError(t, err)
	a, err := processed.DecodeAnalysis()
	require.NoError(t, err)
	assert.True(t, a.Degraded)
}

func TestReportService_ProcessNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.reports.Process(ctx, 999, "")
	assert.ErrorIs(t, err, common.ErrReportNotFound)

	report := captureURL(t, env, "")
	require.NoError(t, env.reports.Delete(ctx, report.ID))

	_, err = env.reports.Process(ctx, report.ID, "")
	assert.ErrorIs(t, err, common.ErrReportNotFound)

	assert.Zero(t, env.model.Calls())
	assert.Zero(t, env.count(t, &domain.ScanAnalytic{}))
	assert.Zero(t, env.count(t, &domain.ActivityLog{}))
}

func TestReportService_ProcessTwice(t *testing.T) {
	env := newTestEnv(t)
	env.model.reply = validReply
	ctx := context.Background()
	report := captureURL(t, env, "")

	_, err := env.reports.Process(ctx, report.ID, "")
	require.NoError(t, err)

	_, err = env.reports.Process(ctx, report.ID, "")
	assert.ErrorIs(t, err, common.ErrReportAlreadyProcessed)
	assert.Equal(t, 1, env.model.Calls())
	assert.Equal(t, int64(1), env.count(t, &domain.ScanAnalytic{}))
}

func TestReportService_ProcessLosesRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	report := captureURL(t, env, "")

	// another worker completes the report while the model is running
	env.reports.analyzer = analyzerFunc(func(ctx context.Context, _, _ string) (*domain.Analysis, *domain.ModelMetadata) {
		ok, err := env.reports.reports.CompleteIfPending(ctx, report.ID, []byte(`{}`), domain.SeverityNone, "x", time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		return domain.UnavailableAnalysis(), &domain.ModelMetadata{}
	})

	_, err := env.reports.Process(ctx, report.ID, "")
	assert.ErrorIs(t, err, common.ErrReportAlreadyProcessed)
	assert.Zero(t, env.count(t, &domain.ScanAnalytic{}))
	assert.Zero(t, env.count(t, &domain.ActivityLog{}))
}

func TestReportService_ProcessReportDeletedMidFlight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	report := captureURL(t, env, "")

	env.reports.analyzer = analyzerFunc(func(ctx context.Context, _, _ string) (*domain.Analysis, *domain.ModelMetadata) {
		require.NoError(t, env.reports.reports.Delete(ctx, report.ID))
		return domain.UnavailableAnalysis(), &domain.ModelMetadata{}
	})

	_, err := env.reports.Process(ctx, report.ID, "")
	assert.ErrorIs(t, err, common.ErrReportNotFound)
	assert.Zero(t, env.count(t, &domain.ScanAnalytic{}))
}

func TestReportService_ProcessWildlifeCascade(t *testing.T) {
	env := newTestEnv(t)
	env.enableDeterrent(t, 50)
	env.model.reply = wildlifeReply
	ctx := context.Background()
	report := captureURL(t, env, "")

	_, err := env.reports.Process(ctx, report.ID, "")
	require.NoError(t, err)

	var detections []domain.AnimalDetection
	require.NoError(t, env.db.Find(&detections).Error)
	require.Len(t, detections, 1)
	d := detections[0]
	assert.Equal(t, "wild_boar", d.AnimalType)
	assert.Equal(t, domain.DetectionSourceAnalysis, d.Source)
	require.NotNil(t, d.ReportID)
	assert.Equal(t, report.ID, *d.ReportID)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
	assert.InDelta(t, 200.0, d.Distance, 1e-9)

	// analysis-sourced animals are not distance gated
	assert.True(t, d.DeterrentActivated)
	assert.Equal(t, domain.DetectionStatusDeterred, d.Status)
	require.NotNil(t, d.Volume)
	assert.Equal(t, 70, *d.Volume)
	require.NotNil(t, d.FrequencyKHz)
	assert.Equal(t, 18.0, *d.FrequencyKHz)

	cmds := env.publisher.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, d.ID, cmds[0].DetectionID)
	assert.Equal(t, "ultrasonic", cmds[0].SoundType)

	var scan domain.ScanAnalytic
	require.NoError(t, env.db.First(&scan).Error)
	assert.Equal(t, domain.CategoryWildlife, scan.DetectionType)

	// report entry + deterrent entry + wildlife summary
	assert.Equal(t, int64(3), env.count(t, &domain.ActivityLog{}))
}

func TestReportService_ProcessWildlifeDeterrentDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.model.reply = wildlifeReply
	report := captureURL(t, env, "")

	_, err := env.reports.Process(context.Background(), report.ID, "")
	require.NoError(t, err)

	var detections []domain.AnimalDetection
	require.NoError(t, env.db.Find(&detections).Error)
	require.Len(t, detections, 1)
	assert.False(t, detections[0].DeterrentActivated)
	assert.Equal(t, domain.DetectionStatusDetected, detections[0].Status)
	assert.Empty(t, env.publisher.Commands())
}

func TestReportService_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.reports.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := captureURL(t, env, "")
	second := captureURL(t, env, "")

	list, err := env.reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, env.reports.Delete(ctx, first.ID))
	require.NoError(t, env.reports.Delete(ctx, first.ID))

	_, err = env.reports.Get(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrReportNotFound)
}

func TestReportService_BulkDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := captureURL(t, env, "")
	b := captureURL(t, env, "")
	c := captureURL(t, env, "")

	deleted, err := env.reports.BulkDelete(ctx, []uint{a.ID, b.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	list, err := env.reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	_, err = env.reports.BulkDelete(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = env.reports.BulkDelete(ctx, []uint{c.ID, 0})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Equal(t, int64(1), env.count(t, &domain.Report{}))
}
