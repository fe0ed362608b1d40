package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/metrics"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/pkg/cache"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const (
	maxImageBytes   = 10 << 20
	maxCropTypeLen  = 64
	dataImagePrefix = "data:image/"
)

// ImageStore persists captured images and returns a fetchable URL
type ImageStore interface {
	StoreImage(ctx context.Context, data []byte, contentType string) (string, error)
	DeleteImage(ctx context.Context, imageURL string) error
}

// ReportAnalyzer produces an analysis for an image; it never fails
type ReportAnalyzer interface {
	Analyze(ctx context.Context, image, lang string) (*domain.Analysis, *domain.ModelMetadata)
}

// ReportService drives the capture → process lifecycle of reports
type ReportService struct {
	db           *gorm.DB
	reports      *repository.ReportRepository
	analytics    *repository.ScanAnalyticRepository
	activityLogs *repository.ActivityLogRepository
	activity     *ActivityService
	deterrent    *DeterrentService
	analyzer     ReportAnalyzer
	store        ImageStore
	cache        cache.Service
	now          func() time.Time
}

// NewReportService creates a new ReportService. store may be nil, in which
// case data URIs are kept inline.
func NewReportService(
	db *gorm.DB,
	activity *ActivityService,
	deterrent *DeterrentService,
	analyzer ReportAnalyzer,
	store ImageStore,
	cacheService cache.Service,
) *ReportService {
	return &ReportService{
		db:           db,
		reports:      repository.NewReportRepository(db),
		analytics:    repository.NewScanAnalyticRepository(db),
		activityLogs: repository.NewActivityLogRepository(db),
		activity:     activity,
		deterrent:    deterrent,
		analyzer:     analyzer,
		store:        store,
		cache:        cacheService,
		now:          time.Now,
	}
}

// Capture validates the image and creates a pending report
func (s *ReportService) Capture(ctx context.Context, req *domain.CaptureReportRequest) (*domain.Report, error) {
	image := strings.TrimSpace(req.Image)
	if image == "" {
		return nil, fmt.Errorf("%w: image is required", common.ErrInvalidInput)
	}

	lang, err := normalizeLanguageCode(req.Language)
	if err != nil {
		return nil, err
	}

	cropType := strings.TrimSpace(req.CropType)
	if utf8.RuneCountInString(cropType) > maxCropTypeLen {
		return nil, fmt.Errorf("%w: cropType is too long", common.ErrInvalidInput)
	}
	if cropType == "" {
		cropType = domain.DefaultCropType
	}

	imageURL, err := s.resolveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ImageURL: imageURL,
		Status:   domain.ReportStatusPending,
		CropType: cropType,
		Language: lang,
		FieldID:  req.FieldID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	pkglogger.GetLogger().Info().
		Uint("report_id", report.ID).
		Str("crop_type", cropType).
		Str("language", lang).
		Bool("inline_image", strings.HasPrefix(imageURL, "data:")).
		Msg("[Report] captured")
	return report, nil
}

// resolveImage accepts an http(s) URL or a base64 image data URI. Data URIs are
// moved to object storage when it is configured.
func (s *ReportService) resolveImage(ctx context.Context, image string) (string, error) {
	if strings.HasPrefix(strings.ToLower(image), "data:") {
		contentType, data, err := decodeDataImage(image)
		if err != nil {
			return "", err
		}
		if s.store == nil {
			return image, nil
		}
		stored, err := s.store.StoreImage(ctx, data, contentType)
		if err != nil {
			return "", fmt.Errorf("store image: %w", err)
		}
		return stored, nil
	}

	u, err := url.Parse(image)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: image must be an http(s) URL or a base64 image data URI", common.ErrInvalidInput)
	}
	return image, nil
}

// decodeDataImage parses data:image/<type>;base64,<payload>
func decodeDataImage(uri string) (string, []byte, error) {
	invalid := fmt.Errorf("%w: malformed image data URI", common.ErrInvalidInput)

	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(header), dataImagePrefix) {
		return "", nil, invalid
	}
	mediaType, params, _ := strings.Cut(header[len("data:"):], ";")
	if !strings.EqualFold(params, "base64") || len(mediaType) <= len("image/") {
		return "", nil, invalid
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return "", nil, fmt.Errorf("%w: image exceeds %d bytes", common.ErrInvalidInput, maxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, invalid
	}
	return strings.ToLower(mediaType), data, nil
}

// normalizeLanguageCode validates a BCP 47 code; empty means English
func normalizeLanguageCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported language %q", common.ErrInvalidInput, code)
	}
	return tag.String(), nil
}

// Process runs the analysis pipeline on a pending report. Either the report,
// its scan analytic and its activity entry are all committed, or nothing is.
func (s *ReportService) Process(ctx context.Context, id uint, lang string) (*domain.Report, error) {
	log := pkglogger.WithReportID(id)

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrReportNotFound) {
			metrics.ReportsProcessedTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.ReportsProcessedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: load report: %v", common.ErrProcessingFailed, err)
	}
	if report.Status != domain.ReportStatusPending {
		metrics.ReportsProcessedTotal.WithLabelValues("conflict").Inc()
		return nil, common.ErrReportAlreadyProcessed
	}

	// One settings snapshot for every animal of this report
	settings, err := s.deterrent.GetSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[Report] settings unavailable, deterrent stays off")
		settings = domain.DefaultDeterrentSettings()
	}

	if strings.TrimSpace(lang) == "" {
		lang = report.Language
	}
	analysis, meta := s.analyzer.Analyze(ctx, report.ImageURL, lang)
	Enrich(analysis, meta)

	cropType := analysis.CropType
	if cropType == "" {
		cropType = report.CropType
	}
	if cropType == "" {
		cropType = domain.DefaultCropType
	}
	analysis.CropType = cropType

	payload, err := json.Marshal(analysis)
	if err != nil {
		metrics.ReportsProcessedTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: encode analysis: %v", common.ErrProcessingFailed, err)
	}

	primary := DerivePrimaryDetection(analysis)
	processedAt := s.now().UTC()
	var entry *domain.ActivityLog

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reports := s.reports.WithTx(tx)
		ok, err := reports.CompleteIfPending(ctx, id, payload, analysis.Severity, cropType, processedAt)
		if err != nil {
			return err
		}
		if !ok {
			if _, err := reports.FindByID(ctx, id); err != nil {
				return err
			}
			return common.ErrReportAlreadyProcessed
		}

		scan := &domain.ScanAnalytic{
			ReportID:         id,
			DetectionType:    primary.Category,
			DetectionName:    primary.Name,
			Confidence:       primary.Confidence,
			ProcessingTimeMs: meta.ProcessingTimeMs,
			Degraded:         analysis.Degraded,
		}
		if err := s.analytics.WithTx(tx).Create(ctx, scan); err != nil {
			return err
		}

		entry = NewEntry(domain.ActivityDetection,
			fmt.Sprintf("Report #%d analysed: %s (severity %s, health %d%%)", id, primary.Name, analysis.Severity, analysis.OverallHealth),
			map[string]interface{}{
				"reportId":      id,
				"category":      primary.Category,
				"severity":      analysis.Severity,
				"overallHealth": analysis.OverallHealth,
				"degraded":      analysis.Degraded,
			})
		return s.activityLogs.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrReportAlreadyProcessed):
			metrics.ReportsProcessedTotal.WithLabelValues("conflict").Inc()
			return nil, err
		case errors.Is(err, common.ErrReportNotFound):
			metrics.ReportsProcessedTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.ReportsProcessedTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("[Report] processing transaction failed")
		return nil, fmt.Errorf("%w: %v", common.ErrProcessingFailed, err)
	}

	result := "complete"
	if analysis.Degraded {
		result = "degraded"
	}
	metrics.ReportsProcessedTotal.WithLabelValues(result).Inc()

	s.activity.Mirror(ctx, entry)
	if err := s.cache.InvalidateDashboards(ctx); err != nil {
		log.Warn().Err(err).Msg("[Report] cache invalidation failed")
	}

	if analysis.AnimalsDetected && len(analysis.Animals) > 0 {
		s.runCascade(ctx, id, analysis.Animals, settings)
	}

	report.Status = domain.ReportStatusComplete
	report.Analysis = payload
	report.Severity = analysis.Severity
	report.CropType = cropType
	report.ProcessedAt = &processedAt

	log.Info().
		Str("category", primary.Category).
		Str("severity", string(analysis.Severity)).
		Int("overall_health", analysis.OverallHealth).
		Bool("degraded", analysis.Degraded).
		Int64("model_ms", meta.ProcessingTimeMs).
		Msg("[Report] processed")
	return report, nil
}

// runCascade feeds every animal through the deterrent with the same settings
// snapshot, then writes one summary entry. The report is already complete, so
// failures here are only logged.
func (s *ReportService) runCascade(ctx context.Context, reportID uint, animals []domain.Animal, settings domain.DeterrentSettings) {
	log := pkglogger.WithReportID(reportID)
	names := make([]string, 0, len(animals))
	activated := 0

	for _, animal := range animals {
		names = append(names, animal.DisplayName())
		detection, err := s.deterrent.HandleAnalysisAnimal(ctx, reportID, animal, settings)
		if err != nil {
			log.Error().Err(err).Str("animal", animal.DisplayName()).Msg("[Report] deterrent cascade failed")
			continue
		}
		if detection.DeterrentActivated {
			activated++
		}
	}

	if _, err := s.activity.Record(ctx, domain.ActivityDetection,
		fmt.Sprintf("Wildlife detected in report #%d: %s", reportID, strings.Join(names, ", ")),
		map[string]interface{}{
			"reportId":            reportID,
			"animals":             names,
			"deterrentsActivated": activated,
		}); err != nil {
		log.Warn().Err(err).Msg("[Report] wildlife summary log failed")
	}
}

// List returns every report, newest first
func (s *ReportService) List(ctx context.Context) ([]domain.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	return reports, nil
}

// Get returns one report
func (s *ReportService) Get(ctx context.Context, id uint) (*domain.Report, error) {
	return s.reports.FindByID(ctx, id)
}

// Delete removes a report; deleting an unknown id is not an error
func (s *ReportService) Delete(ctx context.Context, id uint) error {
	report, err := s.reports.FindByID(ctx, id)
	if errors.Is(err, common.ErrReportNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}
	s.afterDelete(ctx, []domain.Report{*report})
	return nil
}

// BulkDelete removes the given reports and returns how many existed
func (s *ReportService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return 0, fmt.Errorf("%w: ids must be positive", common.ErrInvalidInput)
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return 0, fmt.Errorf("%w: ids must not be empty", common.ErrInvalidInput)
	}

	existing, err := s.reports.FindByIDs(ctx, unique)
	if err != nil {
		return 0, err
	}
	deleted, err := s.reports.DeleteByIDs(ctx, unique)
	if err != nil {
		return 0, err
	}
	s.afterDelete(ctx, existing)
	return deleted, nil
}

func (s *ReportService) afterDelete(ctx context.Context, deleted []domain.Report) {
	if err := s.cache.InvalidateDashboards(ctx); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("[Report] cache invalidation failed")
	}
	if s.store == nil {
		return
	}
	for _, r := range deleted {
		if err := s.store.DeleteImage(ctx, r.ImageURL); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Uint("report_id", r.ID).Msg("[Report] image cleanup failed")
		}
	}
}
