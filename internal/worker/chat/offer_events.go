package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/messaging"
	offersvc "github.com/Argor01/OkoZnaniy-sub000/internal/service/offer"
	"github.com/Argor01/OkoZnaniy-sub000/internal/worker"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

var workerTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/worker/chat")

// Chat event types.
const (
	OfferCreated  = "offer.created"
	OfferAccepted = "offer.accepted"
	OfferRejected = "offer.rejected"
)

// Module registers the chat offer consumer.
var Module = fx.Module("worker_chat",
	fx.Provide(
		fx.Annotate(
			NewOfferEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// OfferEvent is a chat subsystem message about an offer embedded in a chat
// message. ActorID is the offer's author for offer.created and the deciding
// client otherwise.
type OfferEvent struct {
	Type      string        `json:"type"`
	ChatID    int64         `json:"chat_id"`
	MessageID int64         `json:"message_id"`
	ActorID   int64         `json:"actor_id"`
	Offer     *OfferPayload `json:"offer,omitempty"`
}

// OfferPayload carries the offer terms of an offer.created event.
type OfferPayload struct {
	ClientID    int64           `json:"client_id"`
	Description string          `json:"description"`
	WorkTypeID  *int64          `json:"work_type_id,omitempty"`
	SubjectID   *int64          `json:"subject_id,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Deadline    time.Time       `json:"deadline"`
}

// Offers is the part of the offer converter the consumer drives.
type Offers interface {
	RegisterOffer(ctx context.Context, actor entity.Actor, in offersvc.RegisterOfferInput) (*entity.Offer, error)
	AcceptOffer(ctx context.Context, actor entity.Actor, chatID, messageID int64) (*entity.Order, error)
	RejectOffer(ctx context.Context, actor entity.Actor, chatID, messageID int64) (*entity.Offer, error)
}

// NewOfferEventsHandler consumes offer events from the chat topic.
func NewOfferEventsHandler(svc *offersvc.Service, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.ChatTopic,
		Handler: Handler(svc, logger),
	}
}

// Handler applies offer events. Malformed messages and domain rejections are
// logged and acknowledged; only infrastructure failures are returned so the
// message is redelivered.
func Handler(offers Offers, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.chat.offer", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event OfferEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode chat offer event", zap.Int64("offset", msg.Offset), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		span.SetAttributes(
			attribute.String("event.type", event.Type),
			attribute.Int64("chat.id", event.ChatID),
			attribute.Int64("message.id", event.MessageID),
		)

		err := apply(ctx, offers, event)
		if err == nil {
			logger.Info("chat offer event applied",
				zap.String("type", event.Type),
				zap.Int64("chat_id", event.ChatID),
				zap.Int64("message_id", event.MessageID),
			)
			return nil
		}

		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindInternal {
			logger.Warn("chat offer event rejected",
				zap.String("type", event.Type),
				zap.Int64("chat_id", event.ChatID),
				zap.Int64("message_id", event.MessageID),
				zap.String("kind", string(appErr.Kind())),
				zap.String("reason", appErr.Message()),
			)
			return nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		return err
	}
}

func apply(ctx context.Context, offers Offers, event OfferEvent) error {
	switch event.Type {
	case OfferCreated:
		if event.Offer == nil {
			return errorbank.InvalidInput("offer.created without offer terms")
		}
		_, err := offers.RegisterOffer(ctx, entity.Expert(event.ActorID), offersvc.RegisterOfferInput{
			ChatID:      event.ChatID,
			MessageID:   event.MessageID,
			ClientID:    event.Offer.ClientID,
			Description: event.Offer.Description,
			WorkTypeID:  event.Offer.WorkTypeID,
			SubjectID:   event.Offer.SubjectID,
			Cost:        event.Offer.Cost,
			Deadline:    event.Offer.Deadline,
		})
		return err
	case OfferAccepted:
		_, err := offers.AcceptOffer(ctx, entity.Client(event.ActorID), event.ChatID, event.MessageID)
		return err
	case OfferRejected:
		_, err := offers.RejectOffer(ctx, entity.Client(event.ActorID), event.ChatID, event.MessageID)
		return err
	default:
		return errorbank.InvalidInput(fmt.Sprintf("unknown chat event type %q", event.Type))
	}
}
