package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	ItemCount     int                 `json:"item_count"`
	TotalCents    int64               `json:"total_cents"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderStatusChangedEvent is emitted in the same transaction as a lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Event      string            `json:"event"`
	ActorID    uuid.UUID         `json:"actor_id"`
	AdminNotes *string           `json:"admin_notes,omitempty"`
}

// NotificationRequestedEvent asks the worker to create an in-app notification.
type NotificationRequestedEvent struct {
	UserID  uuid.UUID              `json:"user_id"`
	OrderID *uuid.UUID             `json:"order_id,omitempty"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Link    *string                `json:"link,omitempty"`
}
