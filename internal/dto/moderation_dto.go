package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
)

const EventReportUpdated = "report_updated"

type ModerateReportRequest struct {
	Action string `json:"action"`
}

type ModerateReportResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type VerifiedReportsResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int             `json:"total"`
}

// ModerationEvent is the realtime payload describing a report after moderation.
type ModerationEvent struct {
	DisasterID         string    `json:"disaster_id"`
	ReportID           string    `json:"report_id"`
	Content            string    `json:"content"`
	UserID             string    `json:"user_id"`
	ImageURL           string    `json:"image_url"`
	VerificationStatus string    `json:"verification_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewModerationEvent derives the event from a persisted report row.
func NewModerationEvent(r *models.Report) ModerationEvent {
	return ModerationEvent{
		DisasterID:         r.DisasterID.String(),
		ReportID:           r.ID.String(),
		Content:            r.Content,
		UserID:             r.UserID,
		ImageURL:           r.ImageURL,
		VerificationStatus: r.VerificationStatus,
		CreatedAt:          r.CreatedAt,
	}
}

// Envelope is the message published on a disaster channel.
type Envelope struct {
	Type string          `json:"type"`
	Data ModerationEvent `json:"data"`
}
