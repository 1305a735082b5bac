package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/nats-io/nats.go"
)

// flushTimeout bounds the server round trip when the caller set no deadline.
const flushTimeout = 2 * time.Second

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSBroadcaster publishes events on a subject named after the channel.
type NATSBroadcaster struct {
	conn Publisher
}

func NewNATSBroadcaster(conn Publisher) *NATSBroadcaster {
	return &NATSBroadcaster{conn: conn}
}

func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("disaster-reports"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return conn, nil
}

func (b *NATSBroadcaster) Publish(ctx context.Context, channel string, event dto.ModerationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(event)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(channel, payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", channel, err)
	}

	// Publish only buffers; the flush surfaces write and server errors.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := b.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush %s: %w", channel, err)
	}
	return nil
}
