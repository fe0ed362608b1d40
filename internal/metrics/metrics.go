package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsProcessedTotal counts process calls by outcome (complete, degraded, conflict, not_found, failed).
	ReportsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsense",
		Subsystem: "pipeline",
		Name:      "reports_processed_total",
		Help:      "Total number of report processing attempts, labeled by result.",
	}, []string{"result"})

	// ModelCallDurationSeconds is the latency of the external vision model call.
	ModelCallDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldsense",
		Subsystem: "pipeline",
		Name:      "model_call_duration_seconds",
		Help:      "Latency of the vision model call.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"result"})

	// AnalysisDegradedTotal counts fallback analyses by reason.
	AnalysisDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsense",
		Subsystem: "pipeline",
		Name:      "analysis_degraded_total",
		Help:      "Total number of analyses replaced by the unavailable fallback, labeled by reason.",
	}, []string{"reason"})

	// SchemaViolationsTotal counts model responses that did not match the analysis schema.
	SchemaViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fieldsense",
		Subsystem: "pipeline",
		Name:      "schema_violations_total",
		Help:      "Total number of model responses accepted despite schema violations.",
	})

	// AnimalDetectionsTotal counts wildlife detections by source.
	AnimalDetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsense",
		Subsystem: "deterrent",
		Name:      "detections_total",
		Help:      "Total number of animal detections recorded, labeled by source.",
	}, []string{"source"})

	// DeterrentActivationsTotal counts deterrent activations by species.
	DeterrentActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsense",
		Subsystem: "deterrent",
		Name:      "activations_total",
		Help:      "Total number of deterrent activations, labeled by animal type.",
	}, []string{"animal_type"})
)
