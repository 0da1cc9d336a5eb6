package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              int64           `json:"id"`
	ClientID        int64           `json:"client_id"`
	ExpertID        *int64          `json:"expert_id,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Budget          decimal.Decimal `json:"budget"`
	Deadline        time.Time       `json:"deadline"`
	Status          string          `json:"status"`
	SubjectID       *int64          `json:"subject_id,omitempty"`
	TopicID         *int64          `json:"topic_id,omitempty"`
	WorkTypeID      *int64          `json:"work_type_id,omitempty"`
	ChatID          *int64          `json:"chat_id,omitempty"`
	SourceMessageID *int64          `json:"source_message_id,omitempty"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderEventResponse is one entry of an order's history.
type OrderEventResponse struct {
	Type       string    `json:"type"`
	ActorID    int64     `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order converts an entity into its response form.
func Order(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		ClientID:        o.ClientID,
		ExpertID:        o.ExpertID,
		Title:           o.Title,
		Description:     o.Description,
		Budget:          o.Budget,
		Deadline:        o.Deadline,
		Status:          string(o.Status),
		SubjectID:       o.SubjectID,
		TopicID:         o.TopicID,
		WorkTypeID:      o.WorkTypeID,
		ChatID:          o.ChatID,
		SourceMessageID: o.SourceMessageID,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// Orders converts a slice of orders.
func Orders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, Order(&orders[i]))
	}
	return out
}

// History converts an order's audit trail.
func History(events []entity.OrderEvent) []OrderEventResponse {
	out := make([]OrderEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, OrderEventResponse{
			Type:       e.Type,
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Note:       e.Note,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
