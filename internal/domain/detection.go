package domain

import "time"

// DetectionStatus is the lifecycle state of an AnimalDetection
type DetectionStatus string

const (
	DetectionStatusDetected DetectionStatus = "detected"
	DetectionStatusDeterred DetectionStatus = "deterred"
)

// Detection sources
const (
	DetectionSourceAnalysis = "analysis"
	DetectionSourceManual   = "manual"
	DetectionSourceCamera   = "camera"
)

// AnimalDetection is one wildlife sighting. Confidence is on a 0-1 scale.
type AnimalDetection struct {
	ID                 uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AnimalType         string          `gorm:"column:animal_type;size:64;not null;index" json:"animalType"`
	AnimalName         string          `gorm:"column:animal_name;size:128" json:"animalName"`
	Distance           float64         `gorm:"column:distance" json:"distance"`
	Confidence         float64         `gorm:"column:confidence" json:"confidence"`
	Status             DetectionStatus `gorm:"column:status;size:16;not null" json:"status"`
	DeterrentActivated bool            `gorm:"column:deterrent_activated;not null;default:false" json:"deterrentActivated"`
	FrequencyKHz       *float64        `gorm:"column:frequency_khz" json:"frequencyKhz,omitempty"`
	Volume             *int            `gorm:"column:volume" json:"volume,omitempty"`
	Latitude           *float64        `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude          *float64        `gorm:"column:longitude" json:"longitude,omitempty"`
	Source             string          `gorm:"column:source;size:16" json:"source"`
	ReportID           *uint           `gorm:"column:report_id;index" json:"reportId,omitempty"`
	CameraID           string          `gorm:"column:camera_id;size:64" json:"cameraId,omitempty"`
	DeterredAt         *time.Time      `gorm:"column:deterred_at" json:"deterredAt,omitempty"`
	CreatedAt          time.Time       `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName returns the table name
func (AnimalDetection) TableName() string {
	return "animal_detections"
}

// CreateDetectionRequest is a manual wildlife detection submission
type CreateDetectionRequest struct {
	Type       string   `json:"type" binding:"required"`
	Distance   *float64 `json:"distance" binding:"required"`
	Confidence *float64 `json:"confidence"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// SimulateCameraRequest requests a synthetic camera detection.
// Empty fields are filled randomly.
type SimulateCameraRequest struct {
	CameraID string   `json:"cameraId"`
	Type     string   `json:"type"`
	Distance *float64 `json:"distance"`
}

// DetectionResult is returned by the manual and simulated detection endpoints
type DetectionResult struct {
	Detection          *AnimalDetection `json:"detection"`
	DeterrentActivated bool             `json:"deterrentActivated"`
	FrequencyKHz       float64          `json:"frequencyKhz"`
	Volume             int              `json:"volume"`
	Effectiveness      string           `json:"effectiveness"`
	Message            string           `json:"message"`
}
