package realtime

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes events with Redis PUBLISH.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, event dto.ModerationEvent) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}
