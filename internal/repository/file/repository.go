package file

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/repository/file")

// Repository stores metadata of files attached to orders.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// Create records an uploaded file.
func (r *Repository) Create(ctx context.Context, f *entity.WorkFile) error {
	ctx, span := repoTracer.Start(ctx, "FileRepository.Create", trace.WithAttributes(
		attribute.Int64("order.id", f.OrderID),
		attribute.String("file.kind", string(f.Kind)),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(f).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ListByOrder returns an order's files, oldest first. An empty kind lists all.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64, kind entity.FileKind) ([]entity.WorkFile, error) {
	var files []entity.WorkFile
	q := r.reader.NewSelect().Model(&files).Where("f.order_id = ?", orderID).OrderExpr("f.id ASC")
	if kind != "" {
		q = q.Where("f.kind = ?", kind)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteByOrder drops every file record of an order.
func (r *Repository) DeleteByOrder(ctx context.Context, orderID int64) error {
	_, err := r.writer.NewDelete().Model((*entity.WorkFile)(nil)).Where("order_id = ?", orderID).Exec(ctx)
	return err
}
