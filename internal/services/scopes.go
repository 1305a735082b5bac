package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForDisaster returns a GORM scope that filters by disaster_id.
func ForDisaster(disasterID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("disaster_id = ?", disasterID)
	}
}
