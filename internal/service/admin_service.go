package service

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/pkg/cache"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
	"gonum.org/v1/gonum/stat"
)

// PlaceholderAccuracyRate is reported as accuracyRate until accuracy feedback
// is persisted. It is not a measured statistic.
const PlaceholderAccuracyRate = 95.2

const recentScanLimit = 10

// AdminService builds the admin dashboard from stored reports
type AdminService struct {
	reports   *repository.ReportRepository
	analytics *repository.ScanAnalyticRepository
	cache     cache.Service
}

// NewAdminService creates a new AdminService
func NewAdminService(reports *repository.ReportRepository, analytics *repository.ScanAnalyticRepository, cacheService cache.Service) *AdminService {
	return &AdminService{reports: reports, analytics: analytics, cache: cacheService}
}

// GetStats returns dashboard statistics, served from cache when fresh
func (s *AdminService) GetStats(ctx context.Context) (*domain.AdminStats, error) {
	var cached domain.AdminStats
	err := s.cache.GetAdminStats(ctx, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		pkglogger.GetLogger().Warn().Err(err).Msg("[Admin] stats cache read failed")
	}

	reports, err := s.reports.ListAnalyzed(ctx)
	if err != nil {
		return nil, err
	}
	stats := BuildAdminStats(reports)

	if err := s.cache.SetAdminStats(ctx, stats); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("[Admin] stats cache write failed")
	}
	return stats, nil
}

// BuildAdminStats re-derives categories from each report's embedded analysis.
// Reports without an analysis are skipped.
func BuildAdminStats(reports []domain.Report) *domain.AdminStats {
	stats := &domain.AdminStats{
		AccuracyRate:      PlaceholderAccuracyRate,
		CategoryBreakdown: []domain.CategoryCount{},
		RecentScans:       []domain.RecentScan{},
	}
	counts := map[string]int{}
	var confidences []float64

	for i := range reports {
		r := &reports[i]
		a, err := r.DecodeAnalysis()
		if err != nil {
			pkglogger.GetLogger().Warn().Err(err).Uint("report_id", r.ID).Msg("[Admin] skipping undecodable analysis")
			continue
		}
		if a == nil {
			continue
		}
		stats.TotalScans++

		healthy := true
		if a.DiseaseDetected {
			counts[domain.CategoryDisease]++
			healthy = false
		}
		if a.PestsDetected {
			counts[domain.CategoryInsect]++
			healthy = false
		}
		if a.AnimalsDetected {
			counts[domain.CategoryWildlife]++
			healthy = false
		}
		if healthy {
			counts[domain.CategoryHealthy]++
		}

		confidences = append(confidences, collectConfidences(a, false)...)

		for _, d := range a.Diseases {
			stats.RecentScans = append(stats.RecentScans, recentScan(r, a, domain.CategoryDisease, d.Name, d.Confidence))
		}
		for _, p := range a.Pests {
			stats.RecentScans = append(stats.RecentScans, recentScan(r, a, domain.CategoryInsect, p.Name, p.Confidence))
		}
	}

	if len(confidences) > 0 {
		stats.AvgConfidence = round1(stat.Mean(confidences, nil))
	}

	for _, category := range []string{domain.CategoryDisease, domain.CategoryInsect, domain.CategoryWildlife, domain.CategoryHealthy} {
		n := counts[category]
		if n == 0 {
			continue
		}
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, domain.CategoryCount{
			Category:   category,
			Count:      n,
			Percentage: round1(float64(n) * 100 / float64(stats.TotalScans)),
		})
	}

	sort.SliceStable(stats.RecentScans, func(i, j int) bool {
		return stats.RecentScans[i].CreatedAt.After(stats.RecentScans[j].CreatedAt)
	})
	if len(stats.RecentScans) > recentScanLimit {
		stats.RecentScans = stats.RecentScans[:recentScanLimit]
	}
	return stats
}

func recentScan(r *domain.Report, a *domain.Analysis, category, name string, c *domain.Percent) domain.RecentScan {
	scan := domain.RecentScan{
		ReportID:  r.ID,
		Category:  category,
		Name:      name,
		Severity:  a.Severity,
		CropType:  r.CropType,
		CreatedAt: r.CreatedAt,
	}
	if c != nil {
		v := float64(*c)
		scan.Confidence = &v
	}
	return scan
}

// AcknowledgeAccuracy confirms that the analytic exists. Feedback is not stored yet.
func (s *AdminService) AcknowledgeAccuracy(ctx context.Context, analyticID uint, req *domain.AccuracyFeedbackRequest) (*domain.AccuracyFeedbackResponse, error) {
	analytic, err := s.analytics.FindByID(ctx, analyticID)
	if err != nil {
		return nil, err
	}
	pkglogger.GetLogger().Info().
		Uint("analytic_id", analytic.ID).
		Bool("correct", req.Correct != nil && *req.Correct).
		Str("actual_label", req.ActualLabel).
		Msg("[Admin] accuracy feedback received")
	return &domain.AccuracyFeedbackResponse{
		Acknowledged: true,
		AnalyticID:   analytic.ID,
		Message:      "Feedback received",
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
