package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/cache"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
)

// ReportQueryService serves the verified-report list of a disaster through
// a read-through cache. Moderation evicts the same key.
type ReportQueryService struct {
	store  ReportStore
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewReportQueryService(store ReportStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) *ReportQueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportQueryService{store: store, cache: c, ttl: ttl, logger: logger}
}

func (s *ReportQueryService) ListVerified(ctx context.Context, disasterID string) ([]models.Report, error) {
	key := cache.VerifiedReportsKey(disasterID)

	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "disaster_id", disasterID, "key", key, "error", err)
	}
	if found {
		var reports []models.Report
		if err := json.Unmarshal([]byte(cached), &reports); err == nil {
			return reports, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable cache entry", "disaster_id", disasterID, "key", key)
	}

	// Read before querying: an invalidation after this point makes the
	// result stale and the write below is skipped.
	gen, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		s.logger.WarnContext(ctx, "cache generation read failed", "disaster_id", disasterID, "key", key, "error", genErr)
	}

	reports, err := s.store.ListByStatus(ctx, disasterID, models.StatusVerified)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return reports, nil
	}

	if payload, err := json.Marshal(reports); err == nil {
		stored, err := s.cache.SetIfGeneration(ctx, key, string(payload), s.ttl, gen)
		if err != nil {
			s.logger.WarnContext(ctx, "cache write failed", "disaster_id", disasterID, "key", key, "error", err)
		} else if !stored {
			s.logger.DebugContext(ctx, "skipped cache write invalidated during read", "disaster_id", disasterID, "key", key)
		}
	}
	return reports, nil
}
