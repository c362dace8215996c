package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
)

// LogPublisher はブローカーがない環境でメッセージをログに出すだけの Publisher
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, m *outbox.Message) error {
	logger.Info("domain event",
		zap.String("event_type", m.EventType),
		zap.String("aggregate_type", m.AggregateType),
		zap.String("aggregate_id", m.AggregateID),
		zap.ByteString("payload", m.Payload),
	)
	return nil
}
