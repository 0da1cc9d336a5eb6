package offer

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
	service "github.com/Argor01/OkoZnaniy-sub000/internal/service/offer"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/transport/http/offer")

// Handler exposes chat offers over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an offer Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/chats/:chatID/offers", h.list)

	g := e.Group("/chats/:chatID/messages/:messageID/offer")
	g.POST("", h.register)
	g.GET("", h.get)
	g.POST("/accept", h.accept)
	g.POST("/reject", h.reject)
}

func (h *Handler) register(c echo.Context) error {
	b := response.New(c)

	actor, chatID, messageID, err := params(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	// chat and message come from the path; the service validates the rest
	var payload service.RegisterOfferInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.InvalidInput("invalid payload", errorbank.WithCause(err))).Build()
	}
	payload.ChatID, payload.MessageID = chatID, messageID

	ctx, span := httpTracer.Start(c.Request().Context(), "offers.register", spanAttrs(chatID, messageID))
	defer span.End()

	offer, err := h.svc.RegisterOffer(ctx, actor, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	view, err := h.svc.GetOffer(ctx, offer.ChatID, offer.MessageID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(view)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	chatID, messageID, err := location(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "offers.get", spanAttrs(chatID, messageID))
	defer span.End()

	view, err := h.svc.GetOffer(ctx, chatID, messageID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(view)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	chatID, err := request.ParamID(c, "chatID")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "offers.list", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	views, err := h.svc.ListOffers(ctx, chatID)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.OfferResponse, 0, len(views))
	for i := range views {
		out = append(out, toDTO(&views[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) accept(c echo.Context) error {
	b := response.New(c)

	actor, chatID, messageID, err := params(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "offers.accept", spanAttrs(chatID, messageID))
	defer span.End()

	order, err := h.svc.AcceptOffer(ctx, actor, chatID, messageID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.Order(order)).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)

	actor, chatID, messageID, err := params(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "offers.reject", spanAttrs(chatID, messageID))
	defer span.End()

	if _, err := h.svc.RejectOffer(ctx, actor, chatID, messageID); err != nil {
		return b.WithError(err).Build()
	}
	view, err := h.svc.GetOffer(ctx, chatID, messageID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(view)).Build()
}

func toDTO(view *service.View) dto.OfferResponse {
	return dto.Offer(view.Offer, view.State, view.ExpiresAt)
}

func spanAttrs(chatID, messageID int64) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.Int64("chat.id", chatID),
		attribute.Int64("message.id", messageID),
	)
}

func location(c echo.Context) (chatID, messageID int64, err error) {
	if chatID, err = request.ParamID(c, "chatID"); err != nil {
		return
	}
	messageID, err = request.ParamID(c, "messageID")
	return
}

func params(c echo.Context) (actor entity.Actor, chatID, messageID int64, err error) {
	if actor, err = request.Actor(c); err != nil {
		return
	}
	chatID, messageID, err = location(c)
	return
}
