// Package notification builds lifecycle events and hands them to the
// notification subsystem over the message bus.
package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// Type names a lifecycle event.
type Type string

const (
	OrderCreated           Type = "order.created"
	OrderTaken             Type = "order.taken"
	OrderSubmitted         Type = "order.submitted"
	OrderResumed           Type = "order.resumed"
	OrderApproved          Type = "order.approved"
	OrderRevisionRequested Type = "order.revision_requested"
	OrderCancelled         Type = "order.cancelled"
	OrderDeleted           Type = "order.deleted"
	BidPlaced              Type = "bid.placed"
	BidAccepted            Type = "bid.accepted"
	BidRejected            Type = "bid.rejected"
	BidCancelled           Type = "bid.cancelled"
	OfferRegistered        Type = "offer.registered"
	OfferAccepted          Type = "offer.accepted"
	OfferRejected          Type = "offer.rejected"
	FileUploaded           Type = "file.uploaded"
)

// Event is one successful state change as seen by the notification subsystem.
// ID is unique per event so consumers can drop redeliveries.
type Event struct {
	ID         string             `json:"id"`
	Type       Type               `json:"type"`
	OrderID    int64              `json:"order_id,omitempty"`
	ClientID   int64              `json:"client_id"`
	ExpertID   *int64             `json:"expert_id,omitempty"`
	ActorID    int64              `json:"actor_id"`
	ActorRole  entity.Role        `json:"actor_role"`
	FromStatus entity.OrderStatus `json:"from_status,omitempty"`
	ToStatus   entity.OrderStatus `json:"to_status,omitempty"`
	BidID      *int64             `json:"bid_id,omitempty"`
	ChatID     *int64             `json:"chat_id,omitempty"`
	MessageID  *int64             `json:"message_id,omitempty"`
	Note       string             `json:"note,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// ForOrder describes a change to order made by actor. from is the status
// before the change; the current status is taken from order.
func ForOrder(typ Type, order *entity.Order, actor entity.Actor, from entity.OrderStatus, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		ExpertID:   order.ExpertID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		FromStatus: from,
		ToStatus:   order.Status,
		ChatID:     order.ChatID,
		MessageID:  order.SourceMessageID,
		OccurredAt: at,
	}
}

// ForOffer describes a decision on a chat offer that did not produce an order.
func ForOffer(typ Type, offer *entity.Offer, actor entity.Actor, at time.Time) Event {
	chatID, messageID, expertID := offer.ChatID, offer.MessageID, offer.ExpertID
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ClientID:   offer.ClientID,
		ExpertID:   &expertID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		ChatID:     &chatID,
		MessageID:  &messageID,
		OccurredAt: at,
	}
	if offer.OrderID != nil {
		ev.OrderID = *offer.OrderID
	}
	return ev
}

// WithBid tags the event with the bid it concerns.
func (e Event) WithBid(bidID int64) Event {
	e.BidID = &bidID
	return e
}

// WithNote attaches a free-form note.
func (e Event) WithNote(note string) Event {
	e.Note = note
	return e
}

// History converts the event into an order_events row. It returns nil for
// events that do not belong to an order.
func (e Event) History() *entity.OrderEvent {
	if e.OrderID == 0 {
		return nil
	}
	return &entity.OrderEvent{
		OrderID:    e.OrderID,
		Type:       string(e.Type),
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Note:       e.Note,
		CreatedAt:  e.OccurredAt,
	}
}
