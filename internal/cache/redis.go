package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps query results in Redis. The generation of key lives
// under key + ":gen".
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

var errStaleGeneration = errors.New("cache generation changed")

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := rc.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (rc *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	return readGeneration(ctx, rc.client, key)
}

// SetIfGeneration watches the generation key so an Invalidate racing with
// the write aborts the transaction.
func (rc *RedisCache) SetIfGeneration(ctx context.Context, key, value string, ttl time.Duration, gen int64) (bool, error) {
	err := rc.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, generationKey(key))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
}

func (rc *RedisCache) Invalidate(ctx context.Context, key string) error {
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %s: %w", key, err)
	}
	return nil
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func readGeneration(ctx context.Context, c redis.Cmdable, key string) (int64, error) {
	gen, err := c.Get(ctx, generationKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation %s: %w", key, err)
	}
	return gen, nil
}
