package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Event is an action requested against an order.
type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
	EventDelete   Event = "delete"
)

// Events lists every lifecycle event.
func Events() []Event {
	return []Event{EventApprove, EventReject, EventCancel, EventComplete, EventDelete}
}

type edge struct {
	from  enums.OrderStatus
	event Event
}

var transitions = map[edge]enums.OrderStatus{
	{enums.OrderStatusPending, EventApprove}:   enums.OrderStatusApproved,
	{enums.OrderStatusPending, EventReject}:    enums.OrderStatusRejected,
	{enums.OrderStatusPending, EventCancel}:    enums.OrderStatusCancelled,
	{enums.OrderStatusApproved, EventComplete}: enums.OrderStatusCompleted,
}

// Next returns the status event leads to from the current status.
func Next(from enums.OrderStatus, event Event) (enums.OrderStatus, bool) {
	to, ok := transitions[edge{from, event}]
	return to, ok
}

// Deletable reports whether an order in status may be removed. Pending
// orders must be decided first.
func Deletable(status enums.OrderStatus) bool {
	return status != enums.OrderStatusPending && status.IsValid()
}

// EventForTarget maps an admin status update onto the event that produces it.
func EventForTarget(target enums.OrderStatus) (Event, error) {
	switch target {
	case enums.OrderStatusApproved:
		return EventApprove, nil
	case enums.OrderStatusRejected:
		return EventReject, nil
	case enums.OrderStatusCompleted:
		return EventComplete, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q cannot be set directly", target))
	}
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == enums.UserRoleAdmin }

// authorize enforces who may fire event on order. Cancellation belongs to
// the ordering customer alone; everything else is admin-only.
func authorize(actor Actor, event Event, order *models.Order) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if event == EventCancel {
		if actor.Role != enums.UserRoleUser || order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the customer who placed the order can cancel it")
		}
		return nil
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func invalidTransition(from enums.OrderStatus, event Event) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s an order that is %s", event, from)).
		WithDetails(map[string]any{"from": from, "event": event})
}
