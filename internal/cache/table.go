package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableCache keeps query results in the `cache` table of the main database
// and key generations in `cache_generations`.
type TableCache struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Cache = (*TableCache)(nil)

func NewTableCache(db *gorm.DB) *TableCache {
	return &TableCache{db: db, now: time.Now}
}

func (tc *TableCache) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.CacheEntry
	if err := tc.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query cache key %s: %w", key, err)
	}
	if !entry.ExpiresAt.IsZero() && !tc.now().Before(entry.ExpiresAt) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (tc *TableCache) Generation(ctx context.Context, key string) (int64, error) {
	var row models.CacheGeneration
	if err := tc.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("query cache generation %s: %w", key, err)
	}
	return row.Generation, nil
}

// SetIfGeneration upserts the entry while holding the generation row, so a
// concurrent Invalidate either runs first (and the write is skipped) or
// waits and deletes the entry afterwards. A zero ttl never expires.
func (tc *TableCache) SetIfGeneration(ctx context.Context, key, value string, ttl time.Duration, gen int64) (bool, error) {
	now := tc.now().UTC()
	stored := false

	err := tc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CacheGeneration{Key: key, UpdatedAt: now}).Error; err != nil {
			return err
		}

		lookup := tx
		if tx.Dialector.Name() == "postgres" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row models.CacheGeneration
		if err := lookup.Where("key = ?", key).Take(&row).Error; err != nil {
			return err
		}
		if row.Generation != gen {
			return nil
		}

		entry := models.CacheEntry{Key: key, Value: value, UpdatedAt: now}
		if ttl > 0 {
			entry.ExpiresAt = now.Add(ttl)
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      entry.Value,
				"expires_at": entry.ExpiresAt,
				"updated_at": entry.UpdatedAt,
			}),
		}).Create(&entry).Error; err != nil {
			return err
		}
		stored = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("upsert cache key %s: %w", key, err)
	}
	return stored, nil
}

// Invalidate bumps the generation before deleting, so the delete waits for
// any in-flight SetIfGeneration holding the generation row.
func (tc *TableCache) Invalidate(ctx context.Context, key string) error {
	now := tc.now().UTC()
	err := tc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"generation": gorm.Expr("cache_generations.generation + 1"),
				"updated_at": now,
			}),
		}).Create(&models.CacheGeneration{Key: key, Generation: 1, UpdatedAt: now}).Error; err != nil {
			return err
		}
		return tx.Where("key = ?", key).Delete(&models.CacheEntry{}).Error
	})
	if err != nil {
		return fmt.Errorf("invalidate cache key %s: %w", key, err)
	}
	return nil
}
