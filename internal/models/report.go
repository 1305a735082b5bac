package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Report is a user-submitted observation attached to a single disaster.
// Only moderation changes VerificationStatus.
type Report struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisasterID         uuid.UUID `gorm:"type:uuid;not null;index" json:"disaster_id"`
	UserID             string    `gorm:"size:255;not null;index" json:"user_id"`
	Content            string    `gorm:"type:text" json:"content"`
	ImageURL           string    `gorm:"size:1024" json:"image_url"`
	VerificationStatus string    `gorm:"not null;default:'pending';size:20;index" json:"verification_status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.VerificationStatus == "" {
		r.VerificationStatus = StatusPending
	}
	return nil
}
