package order

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/guard"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
)

// TakeOrder assigns the calling expert to a new order. Of two experts racing
// for the same order exactly one wins; the other gets a conflict.
func (s *Service) TakeOrder(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionTake, notification.OrderTaken, "")
}

// SubmitForReview hands the assigned expert's work to the client. It is also
// how a revision is resubmitted.
func (s *Service) SubmitForReview(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionSubmitForReview, notification.OrderSubmitted, "")
}

// ResumeWork moves an order under revision back to in_progress.
func (s *Service) ResumeWork(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionResumeWork, notification.OrderResumed, "")
}

// ApproveOrder completes an order under review.
func (s *Service) ApproveOrder(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionApprove, notification.OrderApproved, "")
}

// RequestRevision sends reviewed work back to the expert.
func (s *Service) RequestRevision(ctx context.Context, actor entity.Actor, orderID int64, comment string) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionRequestRevision, notification.OrderRevisionRequested, comment)
}

// CancelOrder stops a non-terminal order. Bids and history are kept.
func (s *Service) CancelOrder(ctx context.Context, actor entity.Actor, orderID int64, reason string) (*entity.Order, error) {
	return s.transition(ctx, actor, orderID, guard.ActionCancel, notification.OrderCancelled, reason)
}

func (s *Service) transition(
	ctx context.Context,
	actor entity.Actor,
	orderID int64,
	action guard.Action,
	typ notification.Type,
	note string,
) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.action", string(action)),
		attribute.Int64("actor.id", actor.ID),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		order *entity.Order
		event notification.Event
	)
	err := s.conns.RunInTx(ctx, string(action), func(ctx context.Context, tx bun.Tx) error {
		orders := s.repo.WithTx(tx)

		current, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(current, actor, action); err != nil {
			return err
		}

		from, prev := current.Status, current.Version
		if to, ok := guard.Next(action); ok {
			current.Status = to
		}
		if action == guard.ActionTake {
			expertID := actor.ID
			current.ExpertID = &expertID
		}
		current.UpdatedAt = now
		if err := orders.CompareAndSwap(ctx, current, prev); err != nil {
			return err
		}

		// bids are only actionable while the order is new
		if from == entity.OrderStatusNew {
			if _, err := s.bids.WithTx(tx).ResolveActive(ctx, current.ID, 0, entity.BidStatusRejected, now); err != nil {
				return err
			}
		}

		event = notification.ForOrder(typ, current, actor, from, now).WithNote(note)
		if err := orders.AppendEvent(ctx, event.History()); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, string(action), err)
	}

	s.invalidate(ctx, order.ID)
	s.dispatcher.Dispatch(ctx, event)
	return order, nil
}

// DeleteOrder removes an order with its bids, files and history. Only the
// order's client may do it, and never while work is under way.
func (s *Service) DeleteOrder(ctx context.Context, actor entity.Actor, orderID int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.DeleteOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	now := s.now().UTC()
	var event notification.Event
	err := s.conns.RunInTx(ctx, "DeleteOrder", func(ctx context.Context, tx bun.Tx) error {
		orders := s.repo.WithTx(tx)

		current, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(current, actor, guard.ActionDelete); err != nil {
			return err
		}
		if err := s.bids.WithTx(tx).DeleteByOrder(ctx, orderID); err != nil {
			return err
		}
		if err := s.files.WithTx(tx).DeleteByOrder(ctx, orderID); err != nil {
			return err
		}
		if err := orders.DeleteEvents(ctx, orderID); err != nil {
			return err
		}
		if err := orders.Delete(ctx, current); err != nil {
			return err
		}
		event = notification.ForOrder(notification.OrderDeleted, current, actor, current.Status, now)
		return nil
	})
	if err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	s.invalidate(ctx, orderID)
	s.dispatcher.Dispatch(ctx, event)
	return nil
}
