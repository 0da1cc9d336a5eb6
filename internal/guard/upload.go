package guard

import (
	"fmt"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

type uploadRule struct {
	role    entity.Role
	allowed []entity.OrderStatus
}

var uploadRules = map[entity.FileKind]uploadRule{
	entity.FileKindTask: {
		role: entity.RoleClient,
		allowed: []entity.OrderStatus{
			entity.OrderStatusNew,
			entity.OrderStatusInProgress,
			entity.OrderStatusReview,
			entity.OrderStatusRevision,
		},
	},
	entity.FileKindSolution: {
		role:    entity.RoleExpert,
		allowed: []entity.OrderStatus{entity.OrderStatusInProgress, entity.OrderStatusRevision},
	},
	entity.FileKindRevision: {
		role:    entity.RoleExpert,
		allowed: []entity.OrderStatus{entity.OrderStatusInProgress, entity.OrderStatusRevision},
	},
}

// CanUpload decides whether actor may attach a file of kind to order. Task
// files come from the order's client; solution and revision files come from
// the assigned expert while work is open. Uploading never moves the order.
func CanUpload(order *entity.Order, actor entity.Actor, kind entity.FileKind) error {
	r, ok := uploadRules[kind]
	if !ok {
		return errorbank.InvalidInput(fmt.Sprintf("unknown file kind %q", kind))
	}
	if order == nil {
		return errorbank.NotFound("order not found")
	}

	details := errorbank.WithDetails(map[string]any{
		"order_id":  order.ID,
		"status":    string(order.Status),
		"file_kind": string(kind),
	})

	if actor.Role != r.role {
		return errorbank.Forbidden(fmt.Sprintf("%s files are uploaded by the %s", kind, r.role), details)
	}
	switch r.role {
	case entity.RoleClient:
		if order.ClientID != actor.ID {
			return errorbank.Forbidden("only the order's client may upload task files", details)
		}
	case entity.RoleExpert:
		if !order.HasExpert(actor.ID) {
			return errorbank.Forbidden("only the assigned expert may upload work", details)
		}
	}
	if !hasStatus(r.allowed, order.Status) {
		return errorbank.InvalidState(fmt.Sprintf("cannot upload %s files while order is %s", kind, order.Status), details)
	}
	return nil
}
