package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OfferStatus is the stored state of a chat offer.
type OfferStatus string

const (
	OfferStatusNew      OfferStatus = "new"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

// OfferStateExpired is a display-only state derived from age; it is never stored.
const OfferStateExpired = "expired"

// Offer is an individual proposal from an expert to a client embedded in a
// chat message.
type Offer struct {
	bun.BaseModel `bun:"table:offers,alias:ofr"`

	ID          int64           `bun:",pk,autoincrement" json:"id"`
	ChatID      int64           `bun:"chat_id,notnull,unique:offers_chat_message" json:"chat_id"`
	MessageID   int64           `bun:"message_id,notnull,unique:offers_chat_message" json:"message_id"`
	ExpertID    int64           `bun:"expert_id,notnull" json:"expert_id"`
	ClientID    int64           `bun:"client_id,notnull" json:"client_id"`
	Description string          `bun:"description,notnull" json:"description"`
	WorkTypeID  *int64          `bun:"work_type_id" json:"work_type_id,omitempty"`
	SubjectID   *int64          `bun:"subject_id" json:"subject_id,omitempty"`
	Cost        decimal.Decimal `bun:"cost,type:numeric(14,2),notnull" json:"cost"`
	Deadline    time.Time       `bun:"deadline,notnull" json:"deadline"`
	Status      OfferStatus     `bun:"status,notnull" json:"status"`
	OrderID     *int64          `bun:"order_id" json:"order_id,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	ResolvedAt  *time.Time      `bun:"resolved_at" json:"resolved_at,omitempty"`
}

// ExpiresAt returns the end of the acceptance window.
func (o *Offer) ExpiresAt(ttl time.Duration) time.Time {
	return o.CreatedAt.Add(ttl)
}

// Expired reports whether a pending offer has outlived its acceptance window.
func (o *Offer) Expired(now time.Time, ttl time.Duration) bool {
	return o.Status == OfferStatusNew && now.After(o.ExpiresAt(ttl))
}

// DisplayState is the status shown to chat participants.
func (o *Offer) DisplayState(now time.Time, ttl time.Duration) string {
	if o.Expired(now, ttl) {
		return OfferStateExpired
	}
	return string(o.Status)
}
