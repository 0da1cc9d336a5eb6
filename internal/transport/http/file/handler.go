package file

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/dto"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/request"
	"github.com/Argor01/OkoZnaniy-sub000/internal/presentation/http/response"
	service "github.com/Argor01/OkoZnaniy-sub000/internal/service/file"
)

var httpTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/transport/http/file")

// Handler exposes the work file gate over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a file Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders/:id/files")
	g.GET("", h.list)
	g.POST("", h.upload)
	g.POST("/authorize", h.authorize)
}

type authorizePayload struct {
	Kind string `json:"kind" validate:"required"`
}

func (h *Handler) authorize(c echo.Context) error {
	b := response.New(c)

	actor, err := request.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload authorizePayload
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "files.authorize", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("file.kind", payload.Kind),
	))
	defer span.End()

	if err := h.svc.AuthorizeUpload(ctx, actor, orderID, payload.Kind); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]bool{"allowed": true}).Build()
}

func (h *Handler) upload(c echo.Context) error {
	b := response.New(c)

	actor, err := request.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload service.UploadInput
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "files.upload", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("file.kind", payload.Kind),
	))
	defer span.End()

	file, err := h.svc.UploadFile(ctx, actor, orderID, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.File(file)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	orderID, err := request.ParamID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "files.list", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	files, err := h.svc.ListFiles(ctx, orderID, c.QueryParam("kind"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.Files(files)).Build()
}
