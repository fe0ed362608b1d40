package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityAction is the category of an activity log entry
type ActivityAction string

const (
	ActivityDetection  ActivityAction = "detection"
	ActivityIrrigation ActivityAction = "irrigation"
	ActivityDeterrent  ActivityAction = "deterrent"
	ActivitySystem     ActivityAction = "system"
)

// ActivityLog is an append-only audit entry
type ActivityLog struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Action    ActivityAction `gorm:"column:action;size:16;not null;index" json:"action"`
	Details   string         `gorm:"column:details;type:text" json:"details"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName returns the table name
func (ActivityLog) TableName() string {
	return "activity_logs"
}
