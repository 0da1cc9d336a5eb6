package bid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/cache"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/guard"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	"github.com/Argor01/OkoZnaniy-sub000/internal/observability"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

var serviceTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/service/bid")

// Service is the bid book: competing price proposals against new orders.
type Service struct {
	conns       *database.Connections
	orders      *orderrepo.Repository
	bids        *bidrepo.Repository
	cache       cache.Store
	logger      *zap.Logger
	dispatcher  *notification.Dispatcher
	instruments *observability.Instruments
	validator   *validation.Validator
	now         func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Orders      *orderrepo.Repository
	Bids        *bidrepo.Repository
	Cache       cache.Store
	Logger      *zap.Logger
	Dispatcher  *notification.Dispatcher
	Validator   *validation.Validator
	Instruments *observability.Instruments `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:       p.Connections,
		orders:      p.Orders,
		bids:        p.Bids,
		cache:       p.Cache,
		logger:      p.Logger,
		dispatcher:  p.Dispatcher,
		instruments: p.Instruments,
		validator:   p.Validator,
		now:         time.Now,
	}
}

// PlaceBidInput is an expert's price proposal.
type PlaceBidInput struct {
	Amount  decimal.Decimal `json:"amount"`
	Comment string          `json:"comment" validate:"max=2000"`
}

// PlaceBid records the expert's bid on a new order, superseding the expert's
// previous active bid there.
func (s *Service) PlaceBid(ctx context.Context, actor entity.Actor, orderID int64, in PlaceBidInput) (*entity.Bid, error) {
	ctx, span := serviceTracer.Start(ctx, "BidService.PlaceBid", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("actor.id", actor.ID),
	))
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, errorbank.InvalidAmount("bid amount must be positive", errorbank.WithDetail("amount", in.Amount.String()))
	}

	now := s.now().UTC()
	bid := &entity.Bid{
		OrderID:   orderID,
		ExpertID:  actor.ID,
		Amount:    in.Amount,
		Comment:   in.Comment,
		Status:    entity.BidStatusActive,
		CreatedAt: now,
	}

	var event notification.Event
	err := s.conns.RunInTx(ctx, "PlaceBid", func(ctx context.Context, tx bun.Tx) error {
		orders, bids := s.orders.WithTx(tx), s.bids.WithTx(tx)

		order, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(order, actor, guard.ActionPlaceBid); err != nil {
			return err
		}
		// bump the order version so the bid linearizes with take and accept
		order.UpdatedAt = now
		if err := orders.CompareAndSwap(ctx, order, order.Version); err != nil {
			return err
		}

		var note string
		prev, err := bids.ActiveFor(ctx, orderID, actor.ID)
		switch {
		case err == nil:
			if err := bids.Resolve(ctx, prev, entity.BidStatusCancelled, now); err != nil {
				return err
			}
			note = fmt.Sprintf("supersedes bid %d", prev.ID)
		case !errors.Is(err, bidrepo.ErrNotFound):
			return err
		}

		if err := bids.Create(ctx, bid); err != nil {
			return err
		}

		event = notification.ForOrder(notification.BidPlaced, order, actor, order.Status, now).WithBid(bid.ID).WithNote(note)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(ctx, span, "place_bid", err)
	}

	s.after(ctx, orderID, event)
	return bid, nil
}

// ListBids returns every bid of an order in creation order. An empty status
// lists all of them.
func (s *Service) ListBids(ctx context.Context, orderID int64, status string) ([]entity.Bid, error) {
	ctx, span := serviceTracer.Start(ctx, "BidService.ListBids", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var filter entity.BidStatus
	if status != "" {
		filter = entity.BidStatus(status)
		switch filter {
		case entity.BidStatusActive, entity.BidStatusAccepted, entity.BidStatusRejected, entity.BidStatusCancelled:
		default:
			return nil, errorbank.InvalidInput("unknown bid status", errorbank.WithDetail("status", status))
		}
	}

	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, s.fail(ctx, span, "list_bids", err)
	}
	bids, err := s.bids.ListByOrder(ctx, orderID, filter)
	if err != nil {
		return nil, s.fail(ctx, span, "list_bids", err)
	}
	return bids, nil
}

// AcceptBid assigns the bid's expert to the order at the bid's price. The
// other active bids on the order are rejected in the same transaction.
func (s *Service) AcceptBid(ctx context.Context, actor entity.Actor, orderID, bidID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BidService.AcceptBid", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("bid.id", bidID),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		order *entity.Order
		event notification.Event
	)
	err := s.conns.RunInTx(ctx, "AcceptBid", func(ctx context.Context, tx bun.Tx) error {
		orders, bids := s.orders.WithTx(tx), s.bids.WithTx(tx)

		current, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(current, actor, guard.ActionAcceptBid); err != nil {
			return err
		}
		bid, err := s.activeBid(ctx, bids, orderID, bidID)
		if err != nil {
			return err
		}

		from, prev := current.Status, current.Version
		to, _ := guard.Next(guard.ActionAcceptBid)
		expertID := bid.ExpertID
		current.Status = to
		current.ExpertID = &expertID
		current.Budget = bid.Amount
		current.UpdatedAt = now
		if err := orders.CompareAndSwap(ctx, current, prev); err != nil {
			return err
		}
		if err := bids.Resolve(ctx, bid, entity.BidStatusAccepted, now); err != nil {
			return err
		}
		rejected, err := bids.ResolveActive(ctx, orderID, bid.ID, entity.BidStatusRejected, now)
		if err != nil {
			return err
		}

		event = notification.ForOrder(notification.BidAccepted, current, actor, from, now).
			WithBid(bid.ID).
			WithNote(fmt.Sprintf("agreed price %s, %d other bids rejected", bid.Amount.String(), rejected))
		if err := orders.AppendEvent(ctx, event.History()); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "accept_bid", err)
	}

	s.after(ctx, orderID, event)
	return order, nil
}

// RejectBid declines one bid. The order is untouched.
func (s *Service) RejectBid(ctx context.Context, actor entity.Actor, orderID, bidID int64) (*entity.Bid, error) {
	ctx, span := serviceTracer.Start(ctx, "BidService.RejectBid", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("bid.id", bidID),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		bid   *entity.Bid
		event notification.Event
	)
	err := s.conns.RunInTx(ctx, "RejectBid", func(ctx context.Context, tx bun.Tx) error {
		orders, bids := s.orders.WithTx(tx), s.bids.WithTx(tx)

		order, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(order, actor, guard.ActionRejectBid); err != nil {
			return err
		}
		bid, err = s.activeBid(ctx, bids, orderID, bidID)
		if err != nil {
			return err
		}
		if err := bids.Resolve(ctx, bid, entity.BidStatusRejected, now); err != nil {
			return err
		}

		event = notification.ForOrder(notification.BidRejected, order, actor, order.Status, now).WithBid(bid.ID)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(ctx, span, "reject_bid", err)
	}

	s.after(ctx, 0, event)
	return bid, nil
}

// CancelBid withdraws the calling expert's active bid on an order.
func (s *Service) CancelBid(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Bid, error) {
	ctx, span := serviceTracer.Start(ctx, "BidService.CancelBid", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("actor.id", actor.ID),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		bid   *entity.Bid
		event notification.Event
	)
	err := s.conns.RunInTx(ctx, "CancelBid", func(ctx context.Context, tx bun.Tx) error {
		orders, bids := s.orders.WithTx(tx), s.bids.WithTx(tx)

		order, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanTransition(order, actor, guard.ActionCancelBid); err != nil {
			return err
		}
		bid, err = bids.ActiveFor(ctx, orderID, actor.ID)
		if errors.Is(err, bidrepo.ErrNotFound) {
			return errorbank.NotFound("no active bid to withdraw")
		}
		if err != nil {
			return err
		}
		if err := bids.Resolve(ctx, bid, entity.BidStatusCancelled, now); err != nil {
			return err
		}

		event = notification.ForOrder(notification.BidCancelled, order, actor, order.Status, now).WithBid(bid.ID)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(ctx, span, "cancel_bid", err)
	}

	s.after(ctx, 0, event)
	return bid, nil
}

func (s *Service) activeBid(ctx context.Context, bids *bidrepo.Repository, orderID, bidID int64) (*entity.Bid, error) {
	bid, err := bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.OrderID != orderID {
		return nil, bidrepo.ErrNotFound
	}
	if bid.Status != entity.BidStatusActive {
		return nil, errorbank.AlreadyResolved(fmt.Sprintf("bid is already %s", bid.Status),
			errorbank.WithDetail("bid_id", bid.ID))
	}
	return bid, nil
}

// after runs the post-commit effects. orderID is non-zero when the order row changed.
func (s *Service) after(ctx context.Context, orderID int64, event notification.Event) {
	if orderID != 0 && s.cache != nil {
		if err := s.cache.Delete(ctx, cache.OrderKey(orderID)); err != nil {
			s.logger.Warn("orders cache invalidation failed", zap.Int64("id", orderID), zap.Error(err))
		}
	}
	s.dispatcher.Dispatch(ctx, event)
}

func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, orderrepo.ErrNotFound):
		appErr = errorbank.NotFound("order not found")
	case errors.Is(err, bidrepo.ErrNotFound):
		appErr = errorbank.NotFound("bid not found")
	case errors.Is(err, orderrepo.ErrConflict), errors.Is(err, bidrepo.ErrConflict), database.IsLockConflict(err):
		appErr = errorbank.Conflict("bid book changed by a concurrent request", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("bid operation failed", zap.String("op", op), zap.Error(err))
		return errorbank.Internal("failed to "+op, errorbank.WithCause(err))
	}

	if appErr.Kind() == errorbank.KindConflict {
		s.instruments.Conflict(ctx, op)
	}
	span.SetStatus(codes.Error, string(appErr.Kind()))
	return appErr
}
