package domain

import "time"

// Detection categories shared by scan analytics and admin stats
const (
	CategoryDisease  = "disease"
	CategoryInsect   = "insect"
	CategoryWildlife = "wildlife"
	CategoryHealthy  = "healthy"
)

// ScanAnalytic is an append-only summary row per processed report.
// Confidence is on a 0-1 scale.
type ScanAnalytic struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReportID         uint      `gorm:"column:report_id;index" json:"reportId"`
	DetectionType    string    `gorm:"column:detection_type;size:16;not null;index" json:"detectionType"`
	DetectionName    string    `gorm:"column:detection_name;size:255" json:"detectionName"`
	Confidence       float64   `gorm:"column:confidence" json:"confidence"`
	ProcessingTimeMs int64     `gorm:"column:processing_time_ms" json:"processingTimeMs"`
	Degraded         bool      `gorm:"column:degraded;not null;default:false" json:"degraded"`
	CreatedAt        time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName returns the table name
func (ScanAnalytic) TableName() string {
	return "scan_analytics"
}

// AccuracyFeedbackRequest reports whether a scan was correct
type AccuracyFeedbackRequest struct {
	Correct     *bool  `json:"correct" binding:"required"`
	ActualLabel string `json:"actualLabel"`
}

// AccuracyFeedbackResponse acknowledges feedback without storing it
type AccuracyFeedbackResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	AnalyticID   uint   `json:"analyticId"`
	Message      string `json:"message"`
}

// CategoryCount is one row of the admin category breakdown
type CategoryCount struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RecentScan is one disease or pest entry exploded from a report
type RecentScan struct {
	ReportID   uint      `json:"reportId"`
	Category   string    `json:"category"`
	Name       string    `json:"name"`
	Confidence *float64  `json:"confidence,omitempty"`
	Severity   Severity  `json:"severity"`
	CropType   string    `json:"cropType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AdminStats is the admin dashboard summary
type AdminStats struct {
	TotalScans        int             `json:"totalScans"`
	AvgConfidence     float64         `json:"avgConfidence"`
	AccuracyRate      float64         `json:"accuracyRate"`
	CategoryBreakdown []CategoryCount `json:"categoryBreakdown"`
	RecentScans       []RecentScan    `json:"recentScans"`
}

// AutomationStatus summarizes the deterrent cascade over a time window
type AutomationStatus struct {
	Status              string            `json:"status"`
	WindowHours         int               `json:"windowHours"`
	DetectionsInWindow  int64             `json:"detectionsInWindow"`
	DeterrentsActivated int64             `json:"deterrentsActivated"`
	ReportsAnalyzed     int64             `json:"reportsAnalyzed"`
	SpeciesBreakdown    map[string]int64  `json:"speciesBreakdown"`
	LastDetectionAt     *time.Time        `json:"lastDetectionAt,omitempty"`
	Settings            DeterrentSettings `json:"settings"`
}
