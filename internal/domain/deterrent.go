package domain

import "time"

// DeterrentSettingsID is the primary key of the singleton settings row
const DeterrentSettingsID = 1

// DeterrentSettings configures the automated wildlife deterrent
type DeterrentSettings struct {
	ID                 uint      `gorm:"column:id;primaryKey" json:"-"`
	IsEnabled          bool      `gorm:"column:is_enabled;not null;default:false" json:"isEnabled"`
	AutoActivate       bool      `gorm:"column:auto_activate;not null;default:false" json:"autoActivate"`
	Volume             int       `gorm:"column:volume;not null" json:"volume"`
	SoundType          string    `gorm:"column:sound_type;size:32" json:"soundType"`
	ActivationDistance float64   `gorm:"column:activation_distance;not null" json:"activationDistance"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the table name
func (DeterrentSettings) TableName() string {
	return "deterrent_settings"
}

// DefaultDeterrentSettings are the safe defaults used when no row exists
func DefaultDeterrentSettings() DeterrentSettings {
	return DeterrentSettings{
		ID:                 DeterrentSettingsID,
		IsEnabled:          false,
		AutoActivate:       false,
		Volume:             70,
		SoundType:          "ultrasonic",
		ActivationDistance: 50,
	}
}

// AutoFires reports whether detections may activate the deterrent automatically
func (s DeterrentSettings) AutoFires() bool {
	return s.IsEnabled && s.AutoActivate
}

// UpdateDeterrentSettingsRequest is a partial settings update
type UpdateDeterrentSettingsRequest struct {
	IsEnabled          *bool    `json:"isEnabled"`
	AutoActivate       *bool    `json:"autoActivate"`
	Volume             *int     `json:"volume"`
	SoundType          *string  `json:"soundType"`
	ActivationDistance *float64 `json:"activationDistance"`
}

// DeterrentCommand is published to field controllers when a deterrent fires
type DeterrentCommand struct {
	DetectionID  uint      `json:"detectionId"`
	AnimalType   string    `json:"animalType"`
	FrequencyKHz float64   `json:"frequencyKhz"`
	Volume       int       `json:"volume"`
	SoundType    string    `json:"soundType"`
	IssuedAt     time.Time `json:"issuedAt"`
}
