package bid

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/repository/bid")

var (
	// ErrNotFound is returned when a bid is missing.
	ErrNotFound = errors.New("bid not found")
	// ErrConflict is returned when a bid was resolved by someone else first, or
	// when the expert already holds an active bid on the order.
	ErrConflict = errors.New("bid already resolved")
)

// Repository stores bids.
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

// Create inserts a bid.
func (r *Repository) Create(ctx context.Context, bid *entity.Bid) error {
	ctx, span := repoTracer.Start(ctx, "BidRepository.Create", trace.WithAttributes(
		attribute.Int64("order.id", bid.OrderID),
		attribute.Int64("bid.expert_id", bid.ExpertID),
	))
	defer span.End()

	_, err := r.writer.NewInsert().Model(bid).Exec(ctx)
	if database.IsUniqueViolation(err) {
		span.SetStatus(codes.Error, "expert already has an active bid")
		return ErrConflict
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches a bid by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Bid, error) {
	ctx, span := repoTracer.Start(ctx, "BidRepository.GetByID", trace.WithAttributes(attribute.Int64("bid.id", id)))
	defer span.End()

	bid := new(entity.Bid)
	err := r.reader.NewSelect().Model(bid).Where("b.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return bid, nil
}

// ActiveFor returns the expert's live bid on an order.
func (r *Repository) ActiveFor(ctx context.Context, orderID, expertID int64) (*entity.Bid, error) {
	bid := new(entity.Bid)
	err := r.reader.NewSelect().
		Model(bid).
		Where("b.order_id = ?", orderID).
		Where("b.expert_id = ?", expertID).
		Where("b.status = ?", entity.BidStatusActive).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return bid, err
}

// ListByOrder returns an order's bids, oldest first. An empty status lists all.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64, status entity.BidStatus) ([]entity.Bid, error) {
	ctx, span := repoTracer.Start(ctx, "BidRepository.ListByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var bids []entity.Bid
	q := r.reader.NewSelect().Model(&bids).Where("b.order_id = ?", orderID).OrderExpr("b.id ASC")
	if status != "" {
		q = q.Where("b.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return bids, nil
}

// Resolve moves an active bid to a terminal status. ErrConflict means the bid
// was no longer active.
func (r *Repository) Resolve(ctx context.Context, bid *entity.Bid, to entity.BidStatus, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "BidRepository.Resolve", trace.WithAttributes(
		attribute.Int64("bid.id", bid.ID),
		attribute.String("bid.status", string(to)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Bid)(nil)).
		Set("status = ?", to).
		Set("resolved_at = ?", at).
		Where("id = ?", bid.ID).
		Where("status = ?", entity.BidStatusActive).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrConflict
	}
	bid.Status = to
	bid.ResolvedAt = &at
	return nil
}

// ResolveActive moves every remaining active bid of an order, except the one
// with exceptID, to status to. It returns the number of bids touched.
func (r *Repository) ResolveActive(ctx context.Context, orderID, exceptID int64, to entity.BidStatus, at time.Time) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "BidRepository.ResolveActive", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	q := r.writer.NewUpdate().
		Model((*entity.Bid)(nil)).
		Set("status = ?", to).
		Set("resolved_at = ?", at).
		Where("order_id = ?", orderID).
		Where("status = ?", entity.BidStatusActive)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByOrder drops every bid of an order.
func (r *Repository) DeleteByOrder(ctx context.Context, orderID int64) error {
	_, err := r.writer.NewDelete().Model((*entity.Bid)(nil)).Where("order_id = ?", orderID).Exec(ctx)
	return err
}
