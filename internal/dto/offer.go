package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// OfferResponse represents a chat offer with its display state. State is
// "expired" for a pending offer past its window even though it is stored as new.
type OfferResponse struct {
	ChatID      int64           `json:"chat_id"`
	MessageID   int64           `json:"message_id"`
	ExpertID    int64           `json:"expert_id"`
	ClientID    int64           `json:"client_id"`
	Description string          `json:"description"`
	WorkTypeID  *int64          `json:"work_type_id,omitempty"`
	SubjectID   *int64          `json:"subject_id,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Deadline    time.Time       `json:"deadline"`
	State       string          `json:"state"`
	OrderID     *int64          `json:"order_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// Offer converts an offer. state and expiresAt come from the converter,
// which owns the acceptance window.
func Offer(o *entity.Offer, state string, expiresAt time.Time) OfferResponse {
	resp := OfferResponse{
		ChatID:      o.ChatID,
		MessageID:   o.MessageID,
		ExpertID:    o.ExpertID,
		ClientID:    o.ClientID,
		Description: o.Description,
		WorkTypeID:  o.WorkTypeID,
		SubjectID:   o.SubjectID,
		Cost:        o.Cost,
		Deadline:    o.Deadline,
		State:       state,
		OrderID:     o.OrderID,
		CreatedAt:   o.CreatedAt,
	}
	if !expiresAt.IsZero() {
		resp.ExpiresAt = &expiresAt
	}
	return resp
}
