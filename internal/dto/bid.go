package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// BidResponse represents a bid.
type BidResponse struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ExpertID   int64           `json:"expert_id"`
	Amount     decimal.Decimal `json:"amount"`
	Comment    string          `json:"comment,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// Bid converts an entity into its response form.
func Bid(b *entity.Bid) BidResponse {
	return BidResponse{
		ID:         b.ID,
		OrderID:    b.OrderID,
		ExpertID:   b.ExpertID,
		Amount:     b.Amount,
		Comment:    b.Comment,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		ResolvedAt: b.ResolvedAt,
	}
}

// Bids converts a slice of bids.
func Bids(bids []entity.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for i := range bids {
		out = append(out, Bid(&bids[i]))
	}
	return out
}
