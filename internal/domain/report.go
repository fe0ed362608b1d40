package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ReportStatus is the lifecycle state of a Report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusComplete ReportStatus = "complete"
	// ReportStatusFailed is reserved for operator use; the pipeline never writes it.
	ReportStatusFailed ReportStatus = "failed"
)

// DefaultCropType is used when neither the client nor the model names a crop
const DefaultCropType = "unknown"

// Report is one captured image and its analysis lifecycle
type Report struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ImageURL    string         `gorm:"column:image_url;type:longtext;not null" json:"imageUrl"`
	Status      ReportStatus   `gorm:"column:status;size:16;not null;index" json:"status"`
	Analysis    datatypes.JSON `gorm:"column:analysis" json:"analysis"`
	Severity    Severity       `gorm:"column:severity;size:16" json:"severity,omitempty"`
	CropType    string         `gorm:"column:crop_type;size:64" json:"cropType"`
	Language    string         `gorm:"column:language;size:16" json:"language"`
	FieldID     *uint          `gorm:"column:field_id;index" json:"fieldId,omitempty"`
	ProcessedAt *time.Time     `gorm:"column:processed_at" json:"processedAt,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName returns the table name
func (Report) TableName() string {
	return "reports"
}

// HasAnalysis reports whether a non-null analysis is stored
func (r *Report) HasAnalysis() bool {
	s := string(r.Analysis)
	return len(s) > 0 && s != "null"
}

// DecodeAnalysis unmarshals the stored analysis; nil when the report is still pending
func (r *Report) DecodeAnalysis() (*Analysis, error) {
	if !r.HasAnalysis() {
		return nil, nil
	}
	var a Analysis
	if err := json.Unmarshal(r.Analysis, &a); err != nil {
		return nil, err
	}
	a.Normalize()
	return &a, nil
}

// CaptureReportRequest creates a pending report from an image
type CaptureReportRequest struct {
	Image    string `json:"image" binding:"required"`
	CropType string `json:"cropType"`
	Language string `json:"language"`
	FieldID  *uint  `json:"fieldId"`
}

// ProcessReportRequest optionally overrides the analysis language
type ProcessReportRequest struct {
	Language string `json:"language"`
}

// BulkDeleteRequest deletes reports by id
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}
