package offer

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

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
	offerrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/offer"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

var serviceTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/service/offer")

const maxTitleRunes = 120

// Service converts chat offers into orders.
type Service struct {
	conns       *database.Connections
	offers      *offerrepo.Repository
	orders      *orderrepo.Repository
	cache       cache.Store
	cacheTTL    time.Duration
	ttl         time.Duration
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
	Offers      *offerrepo.Repository
	Orders      *orderrepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Dispatcher  *notification.Dispatcher
	Validator   *validation.Validator
	Instruments *observability.Instruments `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	ttl := p.Config.Engine.OfferTTL
	if ttl <= 0 {
		ttl = config.DefaultOfferTTL
	}
	return &Service{
		conns:       p.Connections,
		offers:      p.Offers,
		orders:      p.Orders,
		cache:       p.Cache,
		cacheTTL:    p.Config.Cache.DefaultTTL,
		ttl:         ttl,
		logger:      p.Logger,
		dispatcher:  p.Dispatcher,
		instruments: p.Instruments,
		validator:   p.Validator,
		now:         time.Now,
	}
}

// RegisterOfferInput is the offer payload carried by a chat message.
type RegisterOfferInput struct {
	ChatID      int64           `json:"chat_id" validate:"required,gt=0"`
	MessageID   int64           `json:"message_id" validate:"required,gt=0"`
	ClientID    int64           `json:"client_id" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,max=5000"`
	WorkTypeID  *int64          `json:"work_type_id,omitempty" validate:"omitempty,gt=0"`
	SubjectID   *int64          `json:"subject_id,omitempty" validate:"omitempty,gt=0"`
	Cost        decimal.Decimal `json:"cost"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
}

// View is an offer as shown to chat participants, with its derived state.
type View struct {
	Offer     *entity.Offer
	State     string
	ExpiresAt time.Time
}

// RegisterOffer stores the offer an expert posted into a chat.
func (s *Service) RegisterOffer(ctx context.Context, actor entity.Actor, in RegisterOfferInput) (*entity.Offer, error) {
	ctx, span := serviceTracer.Start(ctx, "OfferService.RegisterOffer", trace.WithAttributes(
		attribute.Int64("chat.id", in.ChatID),
		attribute.Int64("message.id", in.MessageID),
	))
	defer span.End()

	if actor.Role != entity.RoleExpert {
		return nil, errorbank.Forbidden("only experts make offers")
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if in.ClientID == actor.ID {
		return nil, errorbank.InvalidInput("an offer must be addressed to another user")
	}
	if !in.Cost.IsPositive() {
		return nil, errorbank.InvalidAmount("offer cost must be positive", errorbank.WithDetail("cost", in.Cost.String()))
	}

	now := s.now().UTC()
	offer := &entity.Offer{
		ChatID:      in.ChatID,
		MessageID:   in.MessageID,
		ExpertID:    actor.ID,
		ClientID:    in.ClientID,
		Description: in.Description,
		WorkTypeID:  in.WorkTypeID,
		SubjectID:   in.SubjectID,
		Cost:        in.Cost,
		Deadline:    in.Deadline.UTC(),
		Status:      entity.OfferStatusNew,
		CreatedAt:   now,
	}

	err := s.conns.RunInTx(ctx, "RegisterOffer", func(ctx context.Context, tx bun.Tx) error {
		offers := s.offers.WithTx(tx)
		if _, err := offers.Get(ctx, in.ChatID, in.MessageID); err == nil {
			return errorbank.Conflict("message already carries an offer",
				errorbank.WithDetails(map[string]any{"chat_id": in.ChatID, "message_id": in.MessageID}))
		} else if !errors.Is(err, offerrepo.ErrNotFound) {
			return err
		}
		return offers.Create(ctx, offer)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "register_offer", err)
	}

	s.dispatcher.Dispatch(ctx, notification.ForOffer(notification.OfferRegistered, offer, actor, now))
	return offer, nil
}

// GetOffer returns the offer attached to a chat message.
func (s *Service) GetOffer(ctx context.Context, chatID, messageID int64) (*View, error) {
	ctx, span := serviceTracer.Start(ctx, "OfferService.GetOffer", trace.WithAttributes(
		attribute.Int64("chat.id", chatID),
		attribute.Int64("message.id", messageID),
	))
	defer span.End()

	offer, err := s.offers.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, s.fail(ctx, span, "get_offer", err)
	}
	return s.view(offer), nil
}

// ListOffers returns every offer of a chat with derived states.
func (s *Service) ListOffers(ctx context.Context, chatID int64) ([]View, error) {
	ctx, span := serviceTracer.Start(ctx, "OfferService.ListOffers", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	offers, err := s.offers.ListByChat(ctx, chatID)
	if err != nil {
		return nil, s.fail(ctx, span, "list_offers", err)
	}
	views := make([]View, 0, len(offers))
	for i := range offers {
		views = append(views, *s.view(&offers[i]))
	}
	return views, nil
}

// AcceptOffer turns the offer into an order assigned to its author. The offer
// and the new order are written in one transaction, and only the first
// acceptance wins: later calls get AlreadyResolved.
func (s *Service) AcceptOffer(ctx context.Context, actor entity.Actor, chatID, messageID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OfferService.AcceptOffer", trace.WithAttributes(
		attribute.Int64("chat.id", chatID),
		attribute.Int64("message.id", messageID),
		attribute.Int64("actor.id", actor.ID),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		order *entity.Order
		event notification.Event
	)
	err := s.conns.RunInTx(ctx, "AcceptOffer", func(ctx context.Context, tx bun.Tx) error {
		offers, orders := s.offers.WithTx(tx), s.orders.WithTx(tx)

		offer, err := s.decidable(ctx, offers, actor, chatID, messageID, now)
		if err != nil {
			return err
		}
		// claim the offer before creating anything so a racing accept fails here
		if err := offers.Resolve(ctx, offer, entity.OfferStatusAccepted, nil, now); err != nil {
			return err
		}

		order = orderFromOffer(offer, now)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		if err := offers.LinkOrder(ctx, offer, order.ID); err != nil {
			return err
		}

		event = notification.ForOrder(notification.OfferAccepted, order, actor, "", now)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(ctx, span, "accept_offer", err)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cache.OrderKey(order.ID), order, s.cacheTTL); err != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
		}
	}
	s.dispatcher.Dispatch(ctx, event)
	return order, nil
}

// RejectOffer declines the offer. No order is created.
func (s *Service) RejectOffer(ctx context.Context, actor entity.Actor, chatID, messageID int64) (*entity.Offer, error) {
	ctx, span := serviceTracer.Start(ctx, "OfferService.RejectOffer", trace.WithAttributes(
		attribute.Int64("chat.id", chatID),
		attribute.Int64("message.id", messageID),
	))
	defer span.End()

	now := s.now().UTC()
	var offer *entity.Offer
	err := s.conns.RunInTx(ctx, "RejectOffer", func(ctx context.Context, tx bun.Tx) error {
		offers := s.offers.WithTx(tx)

		var err error
		offer, err = s.decidable(ctx, offers, actor, chatID, messageID, now)
		if err != nil {
			return err
		}
		return offers.Resolve(ctx, offer, entity.OfferStatusRejected, nil, now)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "reject_offer", err)
	}

	s.dispatcher.Dispatch(ctx, notification.ForOffer(notification.OfferRejected, offer, actor, now))
	return offer, nil
}

// decidable loads an offer and checks that actor may still decide on it.
func (s *Service) decidable(ctx context.Context, offers *offerrepo.Repository, actor entity.Actor, chatID, messageID int64, now time.Time) (*entity.Offer, error) {
	offer, err := offers.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	details := errorbank.WithDetails(map[string]any{"chat_id": chatID, "message_id": messageID})
	if actor.Role != entity.RoleClient || actor.ID != offer.ClientID {
		return nil, errorbank.Forbidden("only the addressed client may decide on this offer", details)
	}
	if offer.Status != entity.OfferStatusNew {
		return nil, errorbank.AlreadyResolved("offer is already "+string(offer.Status), details)
	}
	if offer.Expired(now, s.ttl) {
		return nil, errorbank.Expired("offer expired", details, errorbank.WithDetail("expired_at", offer.ExpiresAt(s.ttl)))
	}
	return offer, nil
}

func (s *Service) view(offer *entity.Offer) *View {
	return &View{
		Offer:     offer,
		State:     offer.DisplayState(s.now().UTC(), s.ttl),
		ExpiresAt: offer.ExpiresAt(s.ttl),
	}
}

func orderFromOffer(offer *entity.Offer, now time.Time) *entity.Order {
	expertID, chatID, messageID := offer.ExpertID, offer.ChatID, offer.MessageID
	return &entity.Order{
		ClientID:        offer.ClientID,
		ExpertID:        &expertID,
		Title:           titleFrom(offer.Description),
		Description:     offer.Description,
		Budget:          offer.Cost,
		Deadline:        offer.Deadline,
		Status:          entity.OrderStatusInProgress,
		SubjectID:       offer.SubjectID,
		WorkTypeID:      offer.WorkTypeID,
		ChatID:          &chatID,
		SourceMessageID: &messageID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// titleFrom uses the first line of the description, shortened.
func titleFrom(description string) string {
	title := strings.TrimSpace(strings.SplitN(description, "\n", 2)[0])
	if utf8.RuneCountInString(title) > maxTitleRunes {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleRunes-1])) + "…"
	}
	if title == "" {
		title = "Individual offer"
	}
	return title
}

func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, offerrepo.ErrNotFound):
		appErr = errorbank.NotFound("offer not found")
	case errors.Is(err, offerrepo.ErrConflict), errors.Is(err, orderrepo.ErrConflict):
		appErr = errorbank.AlreadyResolved("offer was resolved by a concurrent request", errorbank.WithCause(err))
		s.instruments.Conflict(ctx, op)
	case errors.Is(err, offerrepo.ErrDuplicate):
		appErr = errorbank.Conflict("message already carries an offer", errorbank.WithCause(err))
		s.instruments.Conflict(ctx, op)
	case database.IsLockConflict(err):
		appErr = errorbank.Conflict("offer was changed by a concurrent request", errorbank.WithCause(err))
		s.instruments.Conflict(ctx, op)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("offer operation failed", zap.String("op", op), zap.Error(err))
		return errorbank.Internal("failed to "+op, errorbank.WithCause(err))
	}

	span.SetStatus(codes.Error, string(appErr.Kind()))
	return appErr
}
