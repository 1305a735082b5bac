package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
)

// Broadcaster delivers moderation events to subscribers of a channel.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, event dto.ModerationEvent) error
}

// DisasterChannel names the channel subscribers of one disaster listen on.
func DisasterChannel(disasterID string) string {
	return "disaster-" + disasterID
}

func encode(event dto.ModerationEvent) ([]byte, error) {
	payload, err := json.Marshal(dto.Envelope{Type: dto.EventReportUpdated, Data: event})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", dto.EventReportUpdated, err)
	}
	return payload, nil
}

// LogBroadcaster only logs events. Used when no realtime transport is configured.
type LogBroadcaster struct {
	logger *slog.Logger
}

func NewLogBroadcaster(logger *slog.Logger) *LogBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogBroadcaster{logger: logger}
}

func (b *LogBroadcaster) Publish(ctx context.Context, channel string, event dto.ModerationEvent) error {
	b.logger.InfoContext(ctx, "report event",
		"channel", channel,
		"report_id", event.ReportID,
		"verification_status", event.VerificationStatus,
	)
	return nil
}
