package bid

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/dto"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/request"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/response"
	service "github.com/Argor01/OkoZnaniy-sub000/internal/service/bid"
)

var httpTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/transport/http/bid")

// Handler exposes the bid book of an order over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a bid Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders/:id/bids")
	g.GET("", h.list)
	g.POST("", h.place)
	g.DELETE("/mine", h.cancel)
	g.POST("/:bidID/accept", h.accept)
	g.POST("/:bidID/reject", h.reject)
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	actor, err := request.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload service.PlaceBidInput
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bids.place", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("expert.id", actor.ID),
	))
	defer span.End()

	bid, err := h.svc.PlaceBid(ctx, actor, orderID, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.Bid(bid)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bids.list", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	bids, err := h.svc.ListBids(ctx, orderID, c.QueryParam("status"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Bids(bids)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	actor, err := request.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bids.cancel", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	bid, err := h.svc.CancelBid(ctx, actor, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Bid(bid)).Build()
}

func (h *Handler) accept(c echo.Context) error {
	b := response.New(c)

	actor, orderID, bidID, err := params(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bids.accept", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("bid.id", bidID),
	))
	defer span.End()

	order, err := h.svc.AcceptBid(ctx, actor, orderID, bidID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Order(order)).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)

	actor, orderID, bidID, err := params(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bids.reject", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("bid.id", bidID),
	))
	defer span.End()

	bid, err := h.svc.RejectBid(ctx, actor, orderID, bidID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Bid(bid)).Build()
}

func params(c echo.Context) (actor entity.Actor, orderID, bidID int64, err error) {
	if actor, err = request.Actor(c); err != nil {
		return
	}
	if orderID, err = request.ParamID(c, "id"); err != nil {
		return
	}
	bidID, err = request.ParamID(c, "bidID")
	return
}
