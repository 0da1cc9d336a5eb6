package order

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

var repoTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when the stored version moved past the caller's copy,
	// or when an order for the same chat message already exists.
	ErrConflict = errors.New("order version conflict")
)

// Filter narrows order listings. Zero values are ignored.
type Filter struct {
	Status   entity.OrderStatus
	ClientID int64
	ExpertID int64
	Limit    int
	Offset   int
}

// Repository encapsulates read/write access for orders and their history.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithTx returns a repository bound to tx for both reads and writes.
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Int64("order.client_id", order.ClientID)))
	defer span.End()

	if order.Version == 0 {
		order.Version = 1
	}
	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if database.IsUniqueViolation(err) {
		span.SetStatus(codes.Error, "duplicate source message")
		return ErrConflict
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// GetBySourceMessage finds the order created from the offer in a chat message.
func (r *Repository) GetBySourceMessage(ctx context.Context, chatID, messageID int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetBySourceMessage", trace.WithAttributes(
		attribute.Int64("order.chat_id", chatID),
		attribute.Int64("order.source_message_id", messageID),
	))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Where("o.chat_id = ?", chatID).
		Where("o.source_message_id = ?", messageID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// GetForUpdate loads the order and holds its row lock until the surrounding
// transaction ends. Transactions that change an order or its bids take this
// lock before touching any other row.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getLocked(ctx, id, "UPDATE")
}

// GetForShare loads the order and blocks concurrent writers to it until the
// surrounding transaction ends.
func (r *Repository) GetForShare(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getLocked(ctx, id, "SHARE")
}

func (r *Repository) getLocked(ctx context.Context, id int64, mode string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetLocked", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("lock.mode", mode),
	))
	defer span.End()

	order := new(entity.Order)
	err := r.lockQuery(order, id, mode).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

func (r *Repository) lockQuery(order *entity.Order, id int64, mode string) *bun.SelectQuery {
	q := r.writer.NewSelect().Model(order).Where("o.id = ?", id)
	return database.LockRows(r.writer, q, mode)
}

// List returns orders matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []entity.Order
	q := r.reader.NewSelect().Model(&orders).OrderExpr("o.id DESC")
	if filter.Status != "" {
		q = q.Where("o.status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		q = q.Where("o.client_id = ?", filter.ClientID)
	}
	if filter.ExpertID != 0 {
		q = q.Where("o.expert_id = ?", filter.ExpertID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// CompareAndSwap writes the mutable columns of order only if the stored row
// still carries prevVersion. On success order.Version is advanced; when
// another writer got there first ErrConflict is returned and nothing changes.
func (r *Repository) CompareAndSwap(ctx context.Context, order *entity.Order, prevVersion int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CompareAndSwap", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.Int64("order.version", prevVersion),
		attribute.String("order.status", string(order.Status)),
	))
	defer span.End()

	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now().UTC()
	}
	order.Version = prevVersion + 1

	res, err := r.writer.NewUpdate().
		Model(order).
		Column("status", "expert_id", "budget", "updated_at", "version").
		WherePK().
		Where("version = ?", prevVersion).
		Exec(ctx)
	if err != nil {
		order.Version = prevVersion
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		order.Version = prevVersion
		return err
	}
	if affected == 0 {
		order.Version = prevVersion
		span.SetStatus(codes.Error, "version conflict")
		return ErrConflict
	}
	return nil
}

// Delete removes an order row if it still carries order.Version. Callers clear
// dependent rows in the same transaction.
func (r *Repository) Delete(ctx context.Context, order *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	res, err := r.writer.NewDelete().
		Model((*entity.Order)(nil)).
		Where("id = ?", order.ID).
		Where("version = ?", order.Version).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		span.SetStatus(codes.Error, "version conflict")
		return ErrConflict
	}
	return nil
}
