package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// BidStatus is the lifecycle state of a bid.
type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusCancelled BidStatus = "cancelled"
)

// Terminal reports whether the bid can no longer change.
func (s BidStatus) Terminal() bool {
	return s != BidStatusActive
}

// Bid is an expert's price proposal against an open order.
type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:b"`

	ID         int64           `bun:",pk,autoincrement" json:"id"`
	OrderID    int64           `bun:"order_id,notnull" json:"order_id"`
	ExpertID   int64           `bun:"expert_id,notnull" json:"expert_id"`
	Amount     decimal.Decimal `bun:"amount,type:numeric(14,2),notnull" json:"amount"`
	Comment    string          `bun:"comment" json:"comment,omitempty"`
	Status     BidStatus       `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	ResolvedAt *time.Time      `bun:"resolved_at" json:"resolved_at,omitempty"`
}
