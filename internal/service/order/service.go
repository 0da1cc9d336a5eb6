package order

import (
	"context"
	"errors"
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
	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	"github.com/Argor01/OkoZnaniy-sub000/internal/observability"
	bidrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	filerepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/file"
	repo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

var serviceTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/service/order")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service owns the order ledger: creation, reads and status transitions.
type Service struct {
	conns       *database.Connections
	repo        *repo.Repository
	bids        *bidrepo.Repository
	files       *filerepo.Repository
	cache       cache.Store
	cacheTTL    time.Duration
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
	Repository  *repo.Repository
	Bids        *bidrepo.Repository
	Files       *filerepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Dispatcher  *notification.Dispatcher
	Validator   *validation.Validator
	Instruments *observability.Instruments `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:       p.Connections,
		repo:        p.Repository,
		bids:        p.Bids,
		files:       p.Files,
		cache:       p.Cache,
		cacheTTL:    p.Config.Cache.DefaultTTL,
		logger:      p.Logger,
		dispatcher:  p.Dispatcher,
		instruments: p.Instruments,
		validator:   p.Validator,
		now:         time.Now,
	}
}

// CreateOrderInput is what a client supplies for a new order.
type CreateOrderInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
	SubjectID   *int64          `json:"subject_id,omitempty" validate:"omitempty,gt=0"`
	TopicID     *int64          `json:"topic_id,omitempty" validate:"omitempty,gt=0"`
	WorkTypeID  *int64          `json:"work_type_id,omitempty" validate:"omitempty,gt=0"`
}

// ListFilter narrows ListOrders. Status is the raw label; empty means any.
type ListFilter struct {
	Status   string
	ClientID int64
	ExpertID int64
	Limit    int
	Offset   int
}

// CreateOrder records a new order owned by the calling client.
func (s *Service) CreateOrder(ctx context.Context, actor entity.Actor, in CreateOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(attribute.Int64("actor.id", actor.ID)))
	defer span.End()

	if actor.Role != entity.RoleClient {
		return nil, errorbank.Forbidden("only clients create orders")
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if !in.Budget.IsPositive() {
		return nil, errorbank.InvalidAmount("budget must be positive", errorbank.WithDetail("budget", in.Budget.String()))
	}
	now := s.now().UTC()
	if !in.Deadline.After(now) {
		return nil, errorbank.InvalidInput("deadline must be in the future")
	}

	order := &entity.Order{
		ClientID:    actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline.UTC(),
		Status:      entity.OrderStatusNew,
		SubjectID:   in.SubjectID,
		TopicID:     in.TopicID,
		WorkTypeID:  in.WorkTypeID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var event notification.Event
	err := s.conns.RunInTx(ctx, "CreateOrder", func(ctx context.Context, tx bun.Tx) error {
		orders := s.repo.WithTx(tx)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		event = notification.ForOrder(notification.OrderCreated, order, actor, "", now)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
	s.dispatcher.Dispatch(ctx, event)
	return order, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "get", err)
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return order, nil
}

// List returns orders matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	f := repo.Filter{
		ClientID: filter.ClientID,
		ExpertID: filter.ExpertID,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.Status != "" {
		status, ok := entity.ParseOrderStatus(filter.Status)
		if !ok {
			return nil, errorbank.InvalidInput("unknown order status", errorbank.WithDetail("status", filter.Status))
		}
		f.Status = status
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, span, "list", err)
	}
	return orders, nil
}

// History returns the audit trail of an order.
func (s *Service) History(ctx context.Context, id int64) ([]entity.OrderEvent, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.History", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, s.fail(ctx, span, "history", err)
	}
	events, err := s.repo.ListEvents(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "history", err)
	}
	return events, nil
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var order entity.Order
	if err := cache.GetJSON(ctx, s.cache, cache.OrderKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	return cache.SetJSON(ctx, s.cache, cache.OrderKey(order.ID), order, s.cacheTTL)
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.OrderKey(id)); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}

// fail translates repository and guard errors into errorbank errors and
// records them on the span.
func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, repo.ErrNotFound):
		appErr = errorbank.NotFound("order not found")
	case errors.Is(err, repo.ErrConflict), errors.Is(err, bidrepo.ErrConflict), database.IsLockConflict(err):
		appErr = errorbank.Conflict("order was changed by a concurrent request", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("order operation failed", zap.String("op", op), zap.Error(err))
		return errorbank.Internal("failed to "+op+" order", errorbank.WithCause(err))
	}

	if appErr.Kind() == errorbank.KindConflict {
		s.instruments.Conflict(ctx, op)
	}
	span.SetStatus(codes.Error, string(appErr.Kind()))
	return appErr
}
