package service

import (
	"context"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/metrics"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
)

// Degraded reasons recorded in metrics
const (
	degradedNotConfigured = "not_configured"
	degradedModelError    = "model_error"
	degradedParseError    = "parse_error"
)

// VisionModel is an image-capable chat model
type VisionModel interface {
	AnalyzeImage(ctx context.Context, prompt, image string) (string, error)
	ModelID() string
}

// AnalysisInvoker sends a capture to the vision model and turns the reply
// into a structured analysis
type AnalysisInvoker struct {
	model VisionModel
	now   func() time.Time
}

// NewAnalysisInvoker creates a new AnalysisInvoker. A nil model yields
// degraded analyses for every call.
func NewAnalysisInvoker(model VisionModel) *AnalysisInvoker {
	return &AnalysisInvoker{model: model, now: time.Now}
}

// Analyze never fails: model or parse errors produce the unavailable
// fallback with Degraded set. The returned metadata is always populated.
func (inv *AnalysisInvoker) Analyze(ctx context.Context, image, lang string) (*domain.Analysis, *domain.ModelMetadata) {
	resolved := resolveLanguage(lang)
	start := inv.now()
	meta := &domain.ModelMetadata{Language: resolved.Code, Timestamp: start.UTC()}

	if inv.model == nil {
		metrics.AnalysisDegradedTotal.WithLabelValues(degradedNotConfigured).Inc()
		pkglogger.Warn("[Analysis] vision model not configured, returning fallback")
		return domain.UnavailableAnalysis(), meta
	}
	meta.ModelID = inv.model.ModelID()

	raw, err := inv.model.AnalyzeImage(ctx, buildAnalysisPrompt(resolved), image)
	elapsed := inv.now().Sub(start)
	meta.ProcessingTimeMs = elapsed.Milliseconds()
	if err != nil {
		metrics.ModelCallDurationSeconds.WithLabelValues("error").Observe(elapsed.Seconds())
		metrics.AnalysisDegradedTotal.WithLabelValues(degradedModelError).Inc()
		pkglogger.GetLogger().Warn().Err(err).Str("model", meta.ModelID).Msg("[Analysis] model call failed")
		return domain.UnavailableAnalysis(), meta
	}
	metrics.ModelCallDurationSeconds.WithLabelValues("ok").Observe(elapsed.Seconds())

	parsed, err := parseAnalysis(raw)
	if err != nil {
		metrics.AnalysisDegradedTotal.WithLabelValues(degradedParseError).Inc()
		pkglogger.GetLogger().Warn().Err(err).Int("raw_len", len(raw)).Msg("[Analysis] unparseable model reply")
		return domain.UnavailableAnalysis(), meta
	}
	if parsed.SchemaViolations != "" {
		metrics.SchemaViolationsTotal.Inc()
		pkglogger.GetLogger().Warn().Str("violations", parsed.SchemaViolations).Msg("[Analysis] reply accepted with schema violations")
	}
	return parsed.Analysis, meta
}
