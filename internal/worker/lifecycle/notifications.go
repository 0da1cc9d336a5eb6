package lifecycle

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/messaging"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	"github.com/Argor01/OkoZnaniy-sub000/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/worker/lifecycle")

// Module registers the lifecycle event consumer.
var Module = fx.Module("worker_lifecycle",
	fx.Provide(
		fx.Annotate(
			NewNotificationHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewNotificationHandler logs every lifecycle event published by the engine.
// Delivery to users happens in the notification subsystem.
func NewNotificationHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: Handler(logger),
	}
}

// Handler decodes a notification.Event and records it.
func Handler(logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.lifecycle.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event notification.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode lifecycle event", zap.Int64("offset", msg.Offset), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		span.SetAttributes(
			attribute.String("event.type", string(event.Type)),
			attribute.Int64("order.id", event.OrderID),
		)

		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("actor_id", event.ActorID),
			zap.String("actor_role", string(event.ActorRole)),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.OrderID != 0 {
			fields = append(fields, zap.Int64("order_id", event.OrderID))
		}
		if event.ToStatus != "" {
			fields = append(fields, zap.String("from", string(event.FromStatus)), zap.String("to", string(event.ToStatus)))
		}
		if event.BidID != nil {
			fields = append(fields, zap.Int64("bid_id", *event.BidID))
		}
		if event.ChatID != nil && event.MessageID != nil {
			fields = append(fields, zap.Int64("chat_id", *event.ChatID), zap.Int64("message_id", *event.MessageID))
		}
		logger.Info("lifecycle event processed", fields...)

		return nil
	}
}
