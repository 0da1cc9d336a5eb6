// Package guard decides whether an actor may apply an intent to an order.
// It never touches storage: callers load the order, ask the guard, then write.
package guard

import (
	"fmt"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/errorbank"
)

// Action is an intent an actor issues against an order.
type Action string

const (
	ActionTake            Action = "take"
	ActionPlaceBid        Action = "place_bid"
	ActionCancelBid       Action = "cancel_bid"
	ActionAcceptBid       Action = "accept_bid"
	ActionRejectBid       Action = "reject_bid"
	ActionSubmitForReview Action = "submit_for_review"
	ActionResumeWork      Action = "resume_work"
	ActionApprove         Action = "approve"
	ActionRequestRevision Action = "request_revision"
	ActionCancel          Action = "cancel"
	ActionDelete          Action = "delete"
)

type rule struct {
	roles []entity.Role
	// from lists the statuses the action may start from.
	from []entity.OrderStatus
	// to is the resulting status; empty when the order status is unchanged.
	to entity.OrderStatus
	// owner requires the actor to be the order's client.
	owner bool
	// assignee requires the actor to be the assigned expert.
	assignee bool
	// notOwner forbids the order's own client.
	notOwner bool
}

var rules = map[Action]rule{
	ActionTake: {
		roles:    []entity.Role{entity.RoleExpert},
		from:     []entity.OrderStatus{entity.OrderStatusNew},
		to:       entity.OrderStatusInProgress,
		notOwner: true,
	},
	ActionPlaceBid: {
		roles:    []entity.Role{entity.RoleExpert},
		from:     []entity.OrderStatus{entity.OrderStatusNew},
		notOwner: true,
	},
	ActionCancelBid: {
		roles: []entity.Role{entity.RoleExpert},
		from:  []entity.OrderStatus{entity.OrderStatusNew},
	},
	ActionAcceptBid: {
		roles: []entity.Role{entity.RoleClient},
		from:  []entity.OrderStatus{entity.OrderStatusNew},
		to:    entity.OrderStatusInProgress,
		owner: true,
	},
	ActionRejectBid: {
		roles: []entity.Role{entity.RoleClient},
		from:  []entity.OrderStatus{entity.OrderStatusNew},
		owner: true,
	},
	ActionSubmitForReview: {
		roles:    []entity.Role{entity.RoleExpert},
		from:     []entity.OrderStatus{entity.OrderStatusInProgress, entity.OrderStatusRevision},
		to:       entity.OrderStatusReview,
		assignee: true,
	},
	ActionResumeWork: {
		roles:    []entity.Role{entity.RoleExpert},
		from:     []entity.OrderStatus{entity.OrderStatusRevision},
		to:       entity.OrderStatusInProgress,
		assignee: true,
	},
	ActionApprove: {
		roles: []entity.Role{entity.RoleClient},
		from:  []entity.OrderStatus{entity.OrderStatusReview},
		to:    entity.OrderStatusCompleted,
		owner: true,
	},
	ActionRequestRevision: {
		roles: []entity.Role{entity.RoleClient},
		from:  []entity.OrderStatus{entity.OrderStatusReview},
		to:    entity.OrderStatusRevision,
		owner: true,
	},
	ActionCancel: {
		roles: []entity.Role{entity.RoleClient, entity.RolePlatform},
		from: []entity.OrderStatus{
			entity.OrderStatusNew,
			entity.OrderStatusInProgress,
			entity.OrderStatusReview,
			entity.OrderStatusRevision,
		},
		to:    entity.OrderStatusCancelled,
		owner: true,
	},
	ActionDelete: {
		roles: []entity.Role{entity.RoleClient},
		from: []entity.OrderStatus{
			entity.OrderStatusNew,
			entity.OrderStatusCompleted,
			entity.OrderStatusCancelled,
		},
		owner: true,
	},
}

// CanTransition validates role, ownership and status preconditions for an
// intent. It returns nil when the intent is allowed, otherwise an errorbank
// error whose kind tells the caller why.
func CanTransition(order *entity.Order, actor entity.Actor, action Action) error {
	r, ok := rules[action]
	if !ok {
		return errorbank.InvalidInput(fmt.Sprintf("unknown action %q", action))
	}
	if order == nil {
		return errorbank.NotFound("order not found")
	}

	details := errorbank.WithDetails(map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
		"action":   string(action),
	})

	if order.Status.Terminal() && action != ActionDelete {
		return errorbank.InvalidState(fmt.Sprintf("order is %s", order.Status), details)
	}
	if !hasRole(r.roles, actor.Role) {
		return errorbank.Forbidden(fmt.Sprintf("%s may not %s", roleLabel(actor.Role), action), details)
	}
	// Platform policy acts on behalf of the marketplace, not a party to the order.
	if r.owner && actor.Role != entity.RolePlatform && order.ClientID != actor.ID {
		return errorbank.Forbidden("only the order's client may do this", details)
	}
	if r.notOwner && order.ClientID == actor.ID {
		return errorbank.Forbidden("clients cannot work on their own orders", details)
	}
	if r.assignee && !order.HasExpert(actor.ID) {
		return errorbank.Forbidden("only the assigned expert may do this", details)
	}
	if !hasStatus(r.from, order.Status) {
		if action == ActionTake && order.ExpertID != nil {
			return errorbank.Conflict("order already taken by another expert", details)
		}
		return errorbank.InvalidState(fmt.Sprintf("cannot %s an order in status %s", action, order.Status), details)
	}
	return nil
}

// Next returns the status an order moves to after action, and false when the
// action leaves the status unchanged.
func Next(action Action) (entity.OrderStatus, bool) {
	r, ok := rules[action]
	if !ok || r.to == "" {
		return "", false
	}
	return r.to, true
}

func hasRole(roles []entity.Role, role entity.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func hasStatus(statuses []entity.OrderStatus, status entity.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func roleLabel(role entity.Role) string {
	if role == "" {
		return "anonymous actor"
	}
	return string(role)
}
