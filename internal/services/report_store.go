package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStore persists reports.
type ReportStore interface {
	// ConditionalUpdate sets the status of the report matching both ids and
	// returns the updated row. ok is false when no row matched.
	ConditionalUpdate(ctx context.Context, reportID, disasterID, status string) (report *models.Report, ok bool, err error)
	ListByStatus(ctx context.Context, disasterID, status string) ([]models.Report, error)
}

type GormReportStore struct {
	db *gorm.DB
}

var _ ReportStore = (*GormReportStore)(nil)

func NewGormReportStore(db *gorm.DB) *GormReportStore {
	return &GormReportStore{db: db}
}

var errNoMatch = errors.New("no report matches")

func (s *GormReportStore) ConditionalUpdate(ctx context.Context, reportID, disasterID, status string) (*models.Report, bool, error) {
	rid, err := uuid.Parse(reportID)
	if err != nil {
		return nil, false, nil
	}
	did, err := uuid.Parse(disasterID)
	if err != nil {
		return nil, false, nil
	}

	var report models.Report
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Report{}).
			Scopes(ForDisaster(did)).
			Where("id = ?", rid).
			Update("verification_status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errNoMatch
		}
		return tx.Scopes(ForDisaster(did)).First(&report, "id = ?", rid).Error
	})
	if errors.Is(err, errNoMatch) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (s *GormReportStore) ListByStatus(ctx context.Context, disasterID, status string) ([]models.Report, error) {
	did, err := uuid.Parse(disasterID)
	if err != nil {
		return []models.Report{}, nil
	}

	reports := []models.Report{}
	if err := s.db.WithContext(ctx).
		Scopes(ForDisaster(did)).
		Where("verification_status = ?", status).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
