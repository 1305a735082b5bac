package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores ERROR+ log records so failed cache evictions and
// broadcasts can be audited after the fact.
type SystemLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Level      string         `gorm:"size:10;not null;index" json:"level"`
	Message    string         `gorm:"type:text" json:"message"`
	RequestID  string         `gorm:"size:64;index" json:"request_id"`
	DisasterID string         `gorm:"size:64;index" json:"disaster_id"`
	ReportID   string         `gorm:"size:64;index" json:"report_id"`
	UserID     *string        `gorm:"size:255" json:"user_id"`
	Action     string         `gorm:"size:100" json:"action"`
	Error      string         `gorm:"type:text" json:"error"`
	Extra      datatypes.JSON `json:"extra"`
	CreatedAt  time.Time      `json:"created_at"`
}
