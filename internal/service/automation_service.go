package service

import (
	"context"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/pkg/cache"
)

const automationWindow = 24 * time.Hour

// Automation status values
const (
	AutomationActive     = "active"
	AutomationMonitoring = "monitoring"
	AutomationDisabled   = "disabled"
)

// AutomationService summarizes recent deterrent cascade activity
type AutomationService struct {
	detections *repository.AnimalDetectionRepository
	analytics  *repository.ScanAnalyticRepository
	settings   *repository.DeterrentSettingsRepository
	cache      cache.Service
	now        func() time.Time
}

// NewAutomationService creates a new AutomationService
func NewAutomationService(
	detections *repository.AnimalDetectionRepository,
	analytics *repository.ScanAnalyticRepository,
	settings *repository.DeterrentSettingsRepository,
	cacheService cache.Service,
) *AutomationService {
	return &AutomationService{
		detections: detections,
		analytics:  analytics,
		settings:   settings,
		cache:      cacheService,
		now:        time.Now,
	}
}

// Status reports the last 24 hours of detections and activations
func (s *AutomationService) Status(ctx context.Context) (*domain.AutomationStatus, error) {
	var cached domain.AutomationStatus
	if err := s.cache.Get(ctx, cache.KeyAutomationStatus, &cached); err == nil {
		return &cached, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	since := s.now().Add(-automationWindow)

	detections, err := s.detections.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}
	analyzed, err := s.analytics.CountSince(ctx, since)
	if err != nil {
		return nil, err
	}

	status := &domain.AutomationStatus{
		Status:             automationState(settings),
		WindowHours:        int(automationWindow / time.Hour),
		DetectionsInWindow: int64(len(detections)),
		ReportsAnalyzed:    analyzed,
		SpeciesBreakdown:   map[string]int64{},
		Settings:           settings,
	}
	for i, d := range detections {
		status.SpeciesBreakdown[d.AnimalType]++
		if d.DeterrentActivated {
			status.DeterrentsActivated++
		}
		// newest first
		if i == 0 {
			at := d.CreatedAt
			status.LastDetectionAt = &at
		}
	}
	// best effort
	_ = s.cache.Set(ctx, cache.KeyAutomationStatus, status, cache.TTLAutomation)
	return status, nil
}

func automationState(s domain.DeterrentSettings) string {
	switch {
	case s.AutoFires():
		return AutomationActive
	case s.IsEnabled:
		return AutomationMonitoring
	default:
		return AutomationDisabled
	}
}
