package notification

import (
	"context"

	"cafe-be/internal/logger"

	"go.uber.org/zap"
)

// LogSink writes events to the structured log; used when no broker is configured.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, e Event) error {
	logger.FromCtx(ctx).Info("notification",
		zap.String("type", string(e.Type)),
		zap.Int64("order_id", e.OrderID),
		zap.Int64("booking_id", e.BookingID),
		zap.String("status", e.Status),
		zap.Time("occurred_at", e.OccurredAt),
	)
	return nil
}
