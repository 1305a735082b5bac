package models

import "time"

// CacheEntry is a row of the shared `cache` table holding serialized query results.
type CacheEntry struct {
	Key       string    `gorm:"column:key;size:255;primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null" json:"value"`
	ExpiresAt time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CacheEntry) TableName() string {
	return "cache"
}

// CacheGeneration counts invalidations of a cache key. A refill computed
// before the latest invalidation must not be stored.
type CacheGeneration struct {
	Key        string    `gorm:"column:key;size:255;primaryKey" json:"key"`
	Generation int64     `gorm:"column:generation;not null;default:0" json:"generation"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CacheGeneration) TableName() string {
	return "cache_generations"
}
