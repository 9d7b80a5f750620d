package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const defaultQueueSize = 256

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Request asks for an in-app notification for UserID.
type Request struct {
	UserID  uuid.UUID
	OrderID *uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

// Dispatcher hands notification requests to a background loop that records
// them in the outbox. Delivery is at most once: a full queue drops the
// request and a failed write is only logged.
type Dispatcher struct {
	queue   chan Request
	tx      txRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.Storefront
}

// NewDispatcher builds a dispatcher with a queue of size slots.
func NewDispatcher(tx txRunner, emitter outbox.Emitter, size int, logg *logger.Logger, m *metrics.Storefront) (*Dispatcher, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan Request, size),
		tx:      tx,
		outbox:  emitter,
		logg:    logg,
		metrics: m,
	}, nil
}

// Notify enqueues req without blocking and reports whether it was accepted.
func (d *Dispatcher) Notify(ctx context.Context, req Request) bool {
	select {
	case d.queue <- req:
		d.metrics.Notification("queued")
		return true
	default:
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"user_id":           req.UserID.String(),
			"notification_type": req.Type,
		})
		d.logg.Warn(logCtx, "notification queue full, dropping request")
		d.metrics.Notification("dropped")
		return false
	}
}

// Run drains the queue until ctx is canceled, then flushes what is already
// queued and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.flush()
			return
		case req := <-d.queue:
			d.deliver(ctx, req)
		}
	}
}

func (d *Dispatcher) flush() {
	ctx := context.Background()
	for {
		select {
		case req := <-d.queue:
			d.deliver(ctx, req)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   req.UserID,
		Data: payloads.NotificationRequestedEvent{
			UserID:  req.UserID,
			OrderID: req.OrderID,
			Type:    req.Type,
			Title:   req.Title,
			Message: req.Message,
			Link:    req.Link,
		},
	}
	err := d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return d.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		d.logg.Error(d.logg.WithUserID(ctx, req.UserID.String()), "notification dispatch failed", err)
		d.metrics.Notification("failed")
		return
	}
	d.metrics.Notification("delivered")
}
