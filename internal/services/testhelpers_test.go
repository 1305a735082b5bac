package services

import (
	"fmt"
	"testing"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Report{}, &models.CacheEntry{}, &models.CacheGeneration{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedReport(t *testing.T, db *gorm.DB, disasterID uuid.UUID, status string) models.Report {
	t.Helper()
	report := models.Report{
		DisasterID:         disasterID,
		UserID:             "reporter-1",
		Content:            "water rising on main street",
		ImageURL:           "https://img.example/1.jpg",
		VerificationStatus: status,
	}
	require.NoError(t, db.Create(&report).Error)
	return report
}
