package offer

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

var repoTracer = otel.Tracer("github.com/Argor01/OkoZnaniy-sub000/repository/offer")

var (
	// ErrNotFound is returned when no offer is attached to the message.
	ErrNotFound  = errors.New("offer not found")
	// ErrConflict is returned when the offer left the new state before our write.
	ErrConflict  = errors.New("offer already resolved")
	// ErrDuplicate is returned when the chat message already carries an offer.
	ErrDuplicate = errors.New("message already carries an offer")
)

// Repository stores chat offers.
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

// Create inserts an offer attached to a chat message.
func (r *Repository) Create(ctx context.Context, offer *entity.Offer) error {
	ctx, span := repoTracer.Start(ctx, "OfferRepository.Create", trace.WithAttributes(
		attribute.Int64("chat.id", offer.ChatID),
		attribute.Int64("message.id", offer.MessageID),
	))
	defer span.End()

	_, err := r.writer.NewInsert().Model(offer).Exec(ctx)
	if database.IsUniqueViolation(err) {
		span.SetStatus(codes.Error, "duplicate message")
		return ErrDuplicate
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Get loads the offer attached to a chat message.
func (r *Repository) Get(ctx context.Context, chatID, messageID int64) (*entity.Offer, error) {
	ctx, span := repoTracer.Start(ctx, "OfferRepository.Get", trace.WithAttributes(
		attribute.Int64("chat.id", chatID),
		attribute.Int64("message.id", messageID),
	))
	defer span.End()

	offer := new(entity.Offer)
	err := r.reader.NewSelect().
		Model(offer).
		Where("ofr.chat_id = ?", chatID).
		Where("ofr.message_id = ?", messageID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return offer, nil
}

// ListByChat returns every offer posted in a chat, oldest first.
func (r *Repository) ListByChat(ctx context.Context, chatID int64) ([]entity.Offer, error) {
	var offers []entity.Offer
	err := r.reader.NewSelect().Model(&offers).Where("ofr.chat_id = ?", chatID).OrderExpr("ofr.id ASC").Scan(ctx)
	return offers, err
}

// Resolve moves a new offer to a terminal status, linking the created order
// when there is one. Only the first writer wins; later ones get ErrConflict.
func (r *Repository) Resolve(ctx context.Context, offer *entity.Offer, to entity.OfferStatus, orderID *int64, at time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OfferRepository.Resolve", trace.WithAttributes(
		attribute.Int64("offer.id", offer.ID),
		attribute.String("offer.status", string(to)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Offer)(nil)).
		Set("status = ?", to).
		Set("order_id = ?", orderID).
		Set("resolved_at = ?", at).
		Where("id = ?", offer.ID).
		Where("status = ?", entity.OfferStatusNew).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		span.SetStatus(codes.Error, "already resolved")
		return ErrConflict
	}
	offer.Status = to
	offer.OrderID = orderID
	offer.ResolvedAt = &at
	return nil
}

// LinkOrder stamps the order created from an accepted offer.
func (r *Repository) LinkOrder(ctx context.Context, offer *entity.Offer, orderID int64) error {
	_, err := r.writer.NewUpdate().
		Model((*entity.Offer)(nil)).
		Set("order_id = ?", orderID).
		Where("id = ?", offer.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	offer.OrderID = &orderID
	return nil
}
