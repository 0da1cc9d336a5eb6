package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderEvent is one row of an order's audit trail.
type OrderEvent struct {
	bun.BaseModel `bun:"table:order_events,alias:e"`

	ID         int64       `bun:",pk,autoincrement" json:"id"`
	OrderID    int64       `bun:"order_id,notnull" json:"order_id"`
	Type       string      `bun:"type,notnull" json:"type"`
	ActorID    int64       `bun:"actor_id,notnull" json:"actor_id"`
	ActorRole  Role        `bun:"actor_role,notnull" json:"actor_role"`
	FromStatus OrderStatus `bun:"from_status" json:"from_status,omitempty"`
	ToStatus   OrderStatus `bun:"to_status" json:"to_status,omitempty"`
	Note       string      `bun:"note" json:"note,omitempty"`
	CreatedAt  time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
