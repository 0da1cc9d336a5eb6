package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// AppendEvent records one entry of the order's audit trail.
func (r *Repository) AppendEvent(ctx context.Context, event *entity.OrderEvent) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AppendEvent", trace.WithAttributes(
		attribute.Int64("order.id", event.OrderID),
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(event).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ListEvents returns an order's history in the order it happened.
func (r *Repository) ListEvents(ctx context.Context, orderID int64) ([]entity.OrderEvent, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListEvents", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var events []entity.OrderEvent
	err := r.reader.NewSelect().Model(&events).Where("e.order_id = ?", orderID).OrderExpr("e.id ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return events, nil
}

// DeleteEvents drops an order's history.
func (r *Repository) DeleteEvents(ctx context.Context, orderID int64) error {
	_, err := r.writer.NewDelete().Model((*entity.OrderEvent)(nil)).Where("order_id = ?", orderID).Exec(ctx)
	return err
}
