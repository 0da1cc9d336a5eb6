package file

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/internal/guard"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	filerepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/file"
	orderrepo "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

var serviceTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/service/file")

// Service records work files that the storage subsystem has accepted.
type Service struct {
	conns      *database.Connections
	orders     *orderrepo.Repository
	files      *filerepo.Repository
	logger     *zap.Logger
	dispatcher *notification.Dispatcher
	validator  *validation.Validator
	now        func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Orders      *orderrepo.Repository
	Files       *filerepo.Repository
	Logger      *zap.Logger
	Dispatcher  *notification.Dispatcher
	Validator   *validation.Validator
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:      p.Connections,
		orders:     p.Orders,
		files:      p.Files,
		logger:     p.Logger,
		dispatcher: p.Dispatcher,
		validator:  p.Validator,
		now:        time.Now,
	}
}

// UploadInput describes a stored file.
type UploadInput struct {
	Kind       string `json:"kind" validate:"required,oneof=task solution revision"`
	Name       string `json:"name" validate:"required,max=255"`
	StorageKey string `json:"storage_key" validate:"required,max=512"`
	Size       int64  `json:"size" validate:"gte=0"`
}

// AuthorizeUpload answers whether actor may attach a file of kind to the
// order right now. Storage asks before accepting the bytes.
func (s *Service) AuthorizeUpload(ctx context.Context, actor entity.Actor, orderID int64, kind string) error {
	ctx, span := serviceTracer.Start(ctx, "FileService.AuthorizeUpload", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("file.kind", kind),
	))
	defer span.End()

	k, ok := entity.ParseFileKind(kind)
	if !ok {
		return errorbank.InvalidInput("unknown file kind", errorbank.WithDetail("kind", kind))
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return s.fail(span, "authorize_upload", err)
	}
	if err := guard.CanUpload(order, actor, k); err != nil {
		span.SetStatus(codes.Error, "upload denied")
		return err
	}
	return nil
}

// UploadFile records the file against the order. The order status and
// version are left untouched.
func (s *Service) UploadFile(ctx context.Context, actor entity.Actor, orderID int64, in UploadInput) (*entity.WorkFile, error) {
	ctx, span := serviceTracer.Start(ctx, "FileService.UploadFile", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("file.kind", in.Kind),
	))
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	kind, _ := entity.ParseFileKind(in.Kind)

	now := s.now().UTC()
	file := &entity.WorkFile{
		OrderID:    orderID,
		UploaderID: actor.ID,
		Kind:       kind,
		Name:       in.Name,
		StorageKey: in.StorageKey,
		Size:       in.Size,
		CreatedAt:  now,
	}

	var event notification.Event
	err := s.conns.RunInTx(ctx, "UploadFile", func(ctx context.Context, tx bun.Tx) error {
		orders := s.orders.WithTx(tx)
		// a shared lock keeps the status stable until the file row is in
		order, err := orders.GetForShare(ctx, orderID)
		if err != nil {
			return err
		}
		if err := guard.CanUpload(order, actor, kind); err != nil {
			return err
		}
		if err := s.files.WithTx(tx).Create(ctx, file); err != nil {
			return err
		}
		event = notification.ForOrder(notification.FileUploaded, order, actor, order.Status, now).
			WithNote(string(kind) + ": " + in.Name)
		return orders.AppendEvent(ctx, event.History())
	})
	if err != nil {
		return nil, s.fail(span, "upload_file", err)
	}

	s.dispatcher.Dispatch(ctx, event)
	return file, nil
}

// ListFiles returns the files of an order, optionally of one kind.
func (s *Service) ListFiles(ctx context.Context, orderID int64, kind string) ([]entity.WorkFile, error) {
	ctx, span := serviceTracer.Start(ctx, "FileService.ListFiles", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var k entity.FileKind
	if kind != "" {
		var ok bool
		if k, ok = entity.ParseFileKind(kind); !ok {
			return nil, errorbank.InvalidInput("unknown file kind", errorbank.WithDetail("kind", kind))
		}
	}
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, s.fail(span, "list_files", err)
	}
	files, err := s.files.ListByOrder(ctx, orderID, k)
	if err != nil {
		return nil, s.fail(span, "list_files", err)
	}
	return files, nil
}

func (s *Service) fail(span trace.Span, op string, err error) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, orderrepo.ErrNotFound):
		appErr = errorbank.NotFound("order not found")
	case database.IsLockConflict(err):
		appErr = errorbank.Conflict("order was changed by a concurrent request", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("file operation failed", zap.String("op", op), zap.Error(err))
		return errorbank.Internal("failed to "+op, errorbank.WithCause(err))
	}

	span.SetStatus(codes.Error, string(appErr.Kind()))
	return appErr
}
