package order

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/dto"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/request"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/response"
	service "github.com/Argor01/OkoZnaniy-sub000/internal/service/order"
)

var httpTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/history", h.history)

	g.POST("/:id/take", h.simple("orders.take", h.svc.TakeOrder))
	g.POST("/:id/submit", h.simple("orders.submit", h.svc.SubmitForReview))
	g.POST("/:id/resume", h.simple("orders.resume", h.svc.ResumeWork))
	g.POST("/:id/approve", h.simple("orders.approve", h.svc.ApproveOrder))
	g.POST("/:id/revision", h.withNote("orders.revision", h.svc.RequestRevision))
	g.POST("/:id/cancel", h.withNote("orders.cancel", h.svc.CancelOrder))
}

type notePayload struct {
	Note string `json:"note" validate:"max=2000"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	actor, err := request.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload service.CreateOrderInput
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
	))
	defer span.End()

	order, err := h.svc.CreateOrder(ctx, actor, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.Order(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := service.ListFilter{Status: c.QueryParam("status")}
	var err error
	if filter.Limit, err = request.QueryInt(c, "limit", 0); err != nil {
		return b.WithError(err).Build()
	}
	if filter.Offset, err = request.QueryInt(c, "offset", 0); err != nil {
		return b.WithError(err).Build()
	}
	clientID, err := request.QueryInt(c, "client_id", 0)
	if err != nil {
		return b.WithError(err).Build()
	}
	expertID, err := request.QueryInt(c, "expert_id", 0)
	if err != nil {
		return b.WithError(err).Build()
	}
	filter.ClientID, filter.ExpertID = int64(clientID), int64(expertID)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.Orders(orders), len(orders), filter.Limit, filter.Offset).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Order(order)).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)

	id, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.history", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	events, err := h.svc.History(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.History(events)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	actor, id, err := actorAndID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.DeleteOrder(ctx, actor, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

type transitionFunc func(ctx context.Context, actor entity.Actor, orderID int64) (*entity.Order, error)

type noteTransitionFunc func(ctx context.Context, actor entity.Actor, orderID int64, note string) (*entity.Order, error)

func (h *Handler) simple(name string, fn transitionFunc) echo.HandlerFunc {
	return h.withNote(name, func(ctx context.Context, actor entity.Actor, orderID int64, _ string) (*entity.Order, error) {
		return fn(ctx, actor, orderID)
	})
}

func (h *Handler) withNote(name string, fn noteTransitionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		b := response.New(c)

		actor, id, err := actorAndID(c)
		if err != nil {
			return b.WithError(err).Build()
		}
		var payload notePayload
		if c.Request().ContentLength > 0 {
			if err := request.Bind(c, &payload); err != nil {
				return b.WithError(err).Build()
			}
		}

		ctx, span := httpTracer.Start(c.Request().Context(), name, trace.WithAttributes(
			attribute.Int64("order.id", id),
			attribute.String("actor.role", string(actor.Role)),
		))
		defer span.End()

		order, err := fn(ctx, actor, id, payload.Note)
		if err != nil {
			return b.WithError(err).Build()
		}
		return b.WithData(dto.Order(order)).Build()
	}
}

func actorAndID(c echo.Context) (entity.Actor, int64, error) {
	actor, err := request.Actor(c)
	if err != nil {
		return entity.Actor{}, 0, err
	}
	id, err := request.ParamID(c, "id")
	if err != nil {
		return entity.Actor{}, 0, err
	}
	return actor, id, nil
}
