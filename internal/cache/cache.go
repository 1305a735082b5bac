package cache

import (
	"context"
	"time"
)

// Cache stores serialized query results by key. Every key carries a
// generation that Invalidate bumps, so a reader can refuse to store a
// result computed before the latest invalidation.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Generation returns the current invalidation count of key, 0 if never invalidated.
	Generation(ctx context.Context, key string) (int64, error)
	// SetIfGeneration stores value only while key is still at generation gen.
	SetIfGeneration(ctx context.Context, key, value string, ttl time.Duration, gen int64) (bool, error)
	// Invalidate deletes key and bumps its generation. Invalidating a missing key is not an error.
	Invalidate(ctx context.Context, key string) error
}

const KeyVerifiedReportsPrefix = "reports:verified:"

// VerifiedReportsKey is the key of the cached verified-report list of a disaster.
func VerifiedReportsKey(disasterID string) string {
	return KeyVerifiedReportsPrefix + disasterID
}

func generationKey(key string) string {
	return key + ":gen"
}
