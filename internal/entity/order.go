package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReview     OrderStatus = "review"
	OrderStatusRevision   OrderStatus = "revision"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every known order status.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusInProgress,
	OrderStatusReview,
	OrderStatusRevision,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ParseOrderStatus converts a raw label into an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for _, s := range OrderStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Assigned reports whether an order in this status carries an expert.
func (s OrderStatus) Assigned() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusReview, OrderStatusRevision, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// Order is a unit of billable work owned by a client.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	ClientID        int64           `bun:"client_id,notnull" json:"client_id"`
	ExpertID        *int64          `bun:"expert_id" json:"expert_id,omitempty"`
	Title           string          `bun:"title,notnull" json:"title"`
	Description     string          `bun:"description" json:"description"`
	Budget          decimal.Decimal `bun:"budget,type:numeric(14,2),notnull" json:"budget"`
	Deadline        time.Time       `bun:"deadline,notnull" json:"deadline"`
	Status          OrderStatus     `bun:"status,notnull" json:"status"`
	SubjectID       *int64          `bun:"subject_id" json:"subject_id,omitempty"`
	TopicID         *int64          `bun:"topic_id" json:"topic_id,omitempty"`
	WorkTypeID      *int64          `bun:"work_type_id" json:"work_type_id,omitempty"`
	ChatID          *int64          `bun:"chat_id,unique:orders_chat_source" json:"chat_id,omitempty"`
	SourceMessageID *int64          `bun:"source_message_id,unique:orders_chat_source" json:"source_message_id,omitempty"`
	Version         int64           `bun:"version,notnull,default:1" json:"version"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updated_at"`
}

// HasExpert reports whether expertID is the assigned expert.
func (o *Order) HasExpert(expertID int64) bool {
	return o.ExpertID != nil && *o.ExpertID == expertID
}
