package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/metrics"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/pkg/cache"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
)

const (
	defaultDetectionLimit = 50
	maxDetectionLimit     = 500
	defaultCameraID       = "cam-01"
)

// CommandPublisher delivers deterrent commands to field controllers
type CommandPublisher interface {
	Publish(ctx context.Context, msg interface{}) (int64, error)
}

// DeterrentService runs the wildlife deterrent cascade
type DeterrentService struct {
	detections *repository.AnimalDetectionRepository
	settings   *repository.DeterrentSettingsRepository
	activity   *ActivityService
	cache      cache.Service
	publisher  CommandPublisher
	now        func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewDeterrentService creates a new DeterrentService. publisher may be nil.
func NewDeterrentService(
	detections *repository.AnimalDetectionRepository,
	settings *repository.DeterrentSettingsRepository,
	activity *ActivityService,
	cacheService cache.Service,
	publisher CommandPublisher,
) *DeterrentService {
	return &DeterrentService{
		detections: detections,
		settings:   settings,
		activity:   activity,
		cache:      cacheService,
		publisher:  publisher,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetSettings returns the current settings (defaults if never saved)
func (s *DeterrentService) GetSettings(ctx context.Context) (domain.DeterrentSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings applies a partial update after validation
func (s *DeterrentService) UpdateSettings(ctx context.Context, req *domain.UpdateDeterrentSettingsRequest) (domain.DeterrentSettings, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return domain.DeterrentSettings{}, err
	}
	if req.IsEnabled != nil {
		current.IsEnabled = *req.IsEnabled
	}
	if req.AutoActivate != nil {
		current.AutoActivate = *req.AutoActivate
	}
	if req.Volume != nil {
		if *req.Volume < 0 || *req.Volume > 100 {
			return domain.DeterrentSettings{}, fmt.Errorf("%w: volume must be between 0 and 100", common.ErrInvalidInput)
		}
		current.Volume = *req.Volume
	}
	if req.SoundType != nil {
		soundType := strings.TrimSpace(*req.SoundType)
		if soundType == "" {
			return domain.DeterrentSettings{}, fmt.Errorf("%w: soundType must not be empty", common.ErrInvalidInput)
		}
		current.SoundType = soundType
	}
	if req.ActivationDistance != nil {
		d := *req.ActivationDistance
		if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return domain.DeterrentSettings{}, fmt.Errorf("%w: activationDistance must be positive", common.ErrInvalidInput)
		}
		current.ActivationDistance = d
	}

	if err := s.settings.Save(ctx, &current); err != nil {
		return domain.DeterrentSettings{}, err
	}
	s.invalidate(ctx)

	if _, err := s.activity.Record(ctx, domain.ActivitySystem, "Deterrent settings updated", map[string]interface{}{
		"isEnabled":          current.IsEnabled,
		"autoActivate":       current.AutoActivate,
		"volume":             current.Volume,
		"soundType":          current.SoundType,
		"activationDistance": current.ActivationDistance,
	}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("[Deterrent] settings activity log failed")
	}
	return current, nil
}

// HandleAnalysisAnimal records one animal surfaced by an analysis and, when the
// settings snapshot allows auto activation, fires the deterrent at the configured volume.
func (s *DeterrentService) HandleAnalysisAnimal(ctx context.Context, reportID uint, animal domain.Animal, settings domain.DeterrentSettings) (*domain.AnimalDetection, error) {
	sp, _ := LookupSpecies(animal.Type)
	if animal.Type == "" {
		sp, _ = LookupSpecies(animal.Name)
	}

	detection := &domain.AnimalDetection{
		AnimalType: sp.Code,
		AnimalName: animal.DisplayName(),
		Status:     domain.DetectionStatusDetected,
		Source:     domain.DetectionSourceAnalysis,
		ReportID:   &reportID,
	}
	if animal.Confidence != nil {
		detection.Confidence = domain.ClampPercent(float64(*animal.Confidence)) / 100
	}
	if animal.EstimatedDistance != nil {
		detection.Distance = float64(*animal.EstimatedDistance)
	}
	if err := s.createDetection(ctx, detection); err != nil {
		return nil, err
	}

	if settings.AutoFires() {
		if _, err := s.activate(ctx, detection, sp, settings.Volume, settings); err != nil {
			return detection, err
		}
	}
	return detection, nil
}

// SubmitDetection records a manual detection and runs the distance-gated cascade
func (s *DeterrentService) SubmitDetection(ctx context.Context, req *domain.CreateDetectionRequest) (*domain.DetectionResult, error) {
	animalType := strings.TrimSpace(req.Type)
	if animalType == "" {
		return nil, fmt.Errorf("%w: type is required", common.ErrInvalidInput)
	}
	if req.Distance == nil || !validDistance(*req.Distance) {
		return nil, fmt.Errorf("%w: distance must be a non-negative number", common.ErrInvalidInput)
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
		if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
			return nil, fmt.Errorf("%w: confidence must be between 0 and 1", common.ErrInvalidInput)
		}
	}

	sp, _ := LookupSpecies(animalType)
	detection := &domain.AnimalDetection{
		AnimalType: sp.Code,
		AnimalName: speciesDisplayName(sp, animalType),
		Distance:   *req.Distance,
		Confidence: confidence,
		Status:     domain.DetectionStatusDetected,
		Source:     domain.DetectionSourceManual,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	return s.gatedCascade(ctx, detection, sp)
}

// SimulateCamera creates a synthetic camera detection; unset fields are randomized
func (s *DeterrentService) SimulateCamera(ctx context.Context, req *domain.SimulateCameraRequest) (*domain.DetectionResult, error) {
	if req.Distance != nil && !validDistance(*req.Distance) {
		return nil, fmt.Errorf("%w: distance must be a non-negative number", common.ErrInvalidInput)
	}

	s.rngMu.Lock()
	animalType := strings.TrimSpace(req.Type)
	if animalType == "" {
		codes := catalogCodes()
		animalType = codes[s.rng.Intn(len(codes))]
	}
	distance := 5 + s.rng.Float64()*145
	if req.Distance != nil {
		distance = *req.Distance
	}
	confidence := 0.6 + s.rng.Float64()*0.39
	s.rngMu.Unlock()

	cameraID := strings.TrimSpace(req.CameraID)
	if cameraID == "" {
		cameraID = defaultCameraID
	}

	sp, _ := LookupSpecies(animalType)
	detection := &domain.AnimalDetection{
		AnimalType: sp.Code,
		AnimalName: speciesDisplayName(sp, animalType),
		Distance:   math.Round(distance*10) / 10,
		Confidence: math.Round(confidence*100) / 100,
		Status:     domain.DetectionStatusDetected,
		Source:     domain.DetectionSourceCamera,
		CameraID:   cameraID,
	}
	return s.gatedCascade(ctx, detection, sp)
}

// ListDetections returns the newest detections
func (s *DeterrentService) ListDetections(ctx context.Context, limit int) ([]domain.AnimalDetection, error) {
	if limit <= 0 {
		limit = defaultDetectionLimit
	}
	if limit > maxDetectionLimit {
		limit = maxDetectionLimit
	}
	detections, err := s.detections.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if detections == nil {
		detections = []domain.AnimalDetection{}
	}
	return detections, nil
}

// gatedCascade reads the settings once and activates only within the activation radius
func (s *DeterrentService) gatedCascade(ctx context.Context, detection *domain.AnimalDetection, sp Species) (*domain.DetectionResult, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.createDetection(ctx, detection); err != nil {
		return nil, err
	}

	result := &domain.DetectionResult{
		Detection:     detection,
		FrequencyKHz:  sp.FrequencyKHz,
		Effectiveness: sp.Effectiveness,
	}

	switch {
	case !settings.IsEnabled:
		result.Message = "Deterrent system is disabled"
	case !settings.AutoActivate:
		result.Message = "Auto-activation is off; detection recorded"
	case detection.Distance > settings.ActivationDistance:
		result.Message = fmt.Sprintf("%s is beyond the activation distance (%.0fm > %.0fm)",
			detection.AnimalName, detection.Distance, settings.ActivationDistance)
	default:
		volume := ProximityVolume(settings.Volume, detection.Distance)
		activated, err := s.activate(ctx, detection, sp, volume, settings)
		if err != nil {
			return nil, err
		}
		result.DeterrentActivated = activated
		result.Volume = volume
		result.Message = fmt.Sprintf("Deterrent activated at %.1f kHz, volume %d", sp.FrequencyKHz, volume)
	}
	return result, nil
}

// ProximityVolume scales the base volume up for closer animals:
// clamp(round(base * max(1, 100/distance) / 2), 0, 100). Distance <= 0 is maximal.
func ProximityVolume(base int, distance float64) int {
	if distance <= 0 {
		return 100
	}
	scale := math.Max(1, 100/distance)
	return clampInt(int(math.Round(float64(base)*scale/2)), 0, 100)
}

func (s *DeterrentService) createDetection(ctx context.Context, detection *domain.AnimalDetection) error {
	if err := s.detections.Create(ctx, detection); err != nil {
		return fmt.Errorf("create detection: %w", err)
	}
	metrics.AnimalDetectionsTotal.WithLabelValues(detection.Source).Inc()
	s.invalidate(ctx)
	return nil
}

// activate moves a detection to deterred exactly once, then logs, counts and
// publishes the command. Returns false if the detection was already deterred.
func (s *DeterrentService) activate(ctx context.Context, detection *domain.AnimalDetection, sp Species, volume int, settings domain.DeterrentSettings) (bool, error) {
	at := s.now().UTC()
	ok, err := s.detections.MarkDeterred(ctx, detection.ID, sp.FrequencyKHz, volume, at)
	if err != nil {
		return false, fmt.Errorf("mark detection %d deterred: %w", detection.ID, err)
	}
	if !ok {
		return false, nil
	}

	freq := sp.FrequencyKHz
	detection.Status = domain.DetectionStatusDeterred
	detection.DeterrentActivated = true
	detection.FrequencyKHz = &freq
	detection.Volume = &volume
	detection.DeterredAt = &at

	metrics.DeterrentActivationsTotal.WithLabelValues(detection.AnimalType).Inc()

	details := fmt.Sprintf("Deterrent activated for %s at %.1f kHz (effectiveness: %s)", detection.AnimalName, freq, sp.Effectiveness)
	if _, err := s.activity.Record(ctx, domain.ActivityDeterrent, details, map[string]interface{}{
		"detectionId":   detection.ID,
		"animalType":    detection.AnimalType,
		"frequencyKhz":  freq,
		"volume":        volume,
		"effectiveness": sp.Effectiveness,
		"source":        detection.Source,
	}); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint("detection_id", detection.ID).Msg("[Deterrent] activity log failed")
	}

	cmd := domain.DeterrentCommand{
		DetectionID:  detection.ID,
		AnimalType:   detection.AnimalType,
		FrequencyKHz: freq,
		Volume:       volume,
		SoundType:    settings.SoundType,
		IssuedAt:     at,
	}
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, cmd); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Uint("detection_id", detection.ID).Msg("[Deterrent] command publish failed")
		}
	}

	pkglogger.GetLogger().Info().
		Uint("detection_id", detection.ID).
		Str("animal_type", detection.AnimalType).
		Float64("frequency_khz", freq).
		Int("volume", volume).
		Msg("[Deterrent] activated")
	return true, nil
}

func (s *DeterrentService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateDashboards(ctx); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("[Deterrent] cache invalidation failed")
	}
}

func validDistance(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
}

func speciesDisplayName(sp Species, raw string) string {
	if _, ok := speciesCatalog[sp.Code]; ok {
		return sp.Name
	}
	return strings.TrimSpace(raw)
}
