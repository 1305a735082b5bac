package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/cache"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/identity"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/realtime"
	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden: admin only")
	ErrInvalidAction   = errors.New("invalid action")
	ErrUpdateFailed    = errors.New("failed to update report")
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// CacheInvalidator drops cached query results and bumps their generation
// so in-flight reads cannot store results from before the update.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

type moderationInput struct {
	Action string `validate:"required,oneof=approve reject"`
}

// ModerationService moves reports to verified or rejected. The store write
// must be confirmed before caches are evicted or subscribers notified.
type ModerationService struct {
	authorizer  Authorizer
	store       ReportStore
	cache       CacheInvalidator
	broadcaster realtime.Broadcaster
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewModerationService(authorizer Authorizer, store ReportStore, invalidator CacheInvalidator, broadcaster realtime.Broadcaster, logger *slog.Logger) *ModerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModerationService{
		authorizer:  authorizer,
		store:       store,
		cache:       invalidator,
		broadcaster: broadcaster,
		validate:    validator.New(),
		logger:      logger,
	}
}

// StatusForAction maps a moderation action to the resulting status.
func StatusForAction(action string) (string, bool) {
	switch action {
	case ActionApprove:
		return models.StatusVerified, true
	case ActionReject:
		return models.StatusRejected, true
	}
	return "", false
}

// Moderate applies action to the report identified by both ids and returns
// the new status. Cache and broadcast failures are logged, not returned.
func (s *ModerationService) Moderate(ctx context.Context, id *identity.Identity, disasterID, reportID, action string) (string, error) {
	if err := s.authorizer.Authorize(ctx, id); err != nil {
		return "", err
	}

	if err := s.validate.Struct(moderationInput{Action: action}); err != nil {
		return "", ErrInvalidAction
	}
	status, _ := StatusForAction(action)

	report, ok, err := s.store.ConditionalUpdate(ctx, reportID, disasterID, status)
	if err != nil {
		s.logger.ErrorContext(ctx, "report update failed",
			"disaster_id", disasterID, "report_id", reportID, "action", action, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "report update matched no rows",
			"disaster_id", disasterID, "report_id", reportID, "action", action)
		return "", ErrUpdateFailed
	}

	key := cache.VerifiedReportsKey(disasterID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "cache invalidation failed",
			"disaster_id", disasterID, "report_id", reportID, "key", key, "error", err)
	}

	channel := realtime.DisasterChannel(disasterID)
	if err := s.broadcaster.Publish(ctx, channel, dto.NewModerationEvent(report)); err != nil {
		s.logger.ErrorContext(ctx, "report broadcast failed",
			"disaster_id", disasterID, "report_id", reportID, "channel", channel, "error", err)
	}

	var userID string
	if id != nil {
		userID = id.UserID
	}
	s.logger.InfoContext(ctx, "report moderated",
		"disaster_id", disasterID, "report_id", reportID, "user_id", userID, "status", report.VerificationStatus)

	return status, nil
}
