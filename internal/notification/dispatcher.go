package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/messaging"
	"github.com/Argor01/OkoZnaniy-sub000/internal/observability"
)

var dispatchTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/notification")

// Headers stamped on every published lifecycle event.
const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
)

// Module provides the dispatcher to Fx.
var Module = fx.Provide(NewDispatcher)

// Params defines dependencies for constructing a Dispatcher.
type Params struct {
	fx.In

	Client      messaging.Client
	Config      config.Config
	Logger      *zap.Logger
	Instruments *observability.Instruments `optional:"true"`
}

// Dispatcher publishes lifecycle events after their transaction committed.
// Publishing is best effort: the state change already happened, so failures
// are logged rather than returned.
type Dispatcher struct {
	client      messaging.Client
	enabled     bool
	logger      *zap.Logger
	instruments *observability.Instruments
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(p Params) *Dispatcher {
	return &Dispatcher{
		client:      p.Client,
		enabled:     p.Config.Messaging.Enabled,
		logger:      p.Logger,
		instruments: p.Instruments,
	}
}

// New builds a Dispatcher outside the Fx graph.
func New(client messaging.Client, logger *zap.Logger, instruments *observability.Instruments) *Dispatcher {
	return &Dispatcher{client: client, enabled: client != nil, logger: logger, instruments: instruments}
}

// Dispatch publishes each event in order.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) {
	if d == nil {
		return
	}
	for _, ev := range events {
		d.instruments.Transition(ctx, string(ev.Type), string(ev.ToStatus))
		d.publish(ctx, ev)
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev Event) {
	if !d.enabled || d.client == nil {
		return
	}
	ctx, span := dispatchTracer.Start(ctx, "Dispatcher.Publish", trace.WithAttributes(
		attribute.String("event.type", string(ev.Type)),
		attribute.Int64("order.id", ev.OrderID),
	))
	defer span.End()

	payload, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		d.logger.Error("marshal lifecycle event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:   eventKey(ev),
		Value: payload,
		Headers: map[string]string{
			HeaderEventType: string(ev.Type),
			HeaderEventID:   ev.ID,
		},
	}
	if err := d.client.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		d.logger.Error("publish lifecycle event",
			zap.String("type", string(ev.Type)),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}

// eventKey keeps all events of one order on one partition.
func eventKey(ev Event) []byte {
	if ev.OrderID != 0 {
		return []byte(fmt.Sprintf("order-%d", ev.OrderID))
	}
	if ev.ChatID != nil {
		return []byte(fmt.Sprintf("chat-%d", *ev.ChatID))
	}
	return []byte(ev.ID)
}
