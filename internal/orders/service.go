package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockLedger decrements inventory inside the approval transaction.
type StockLedger interface {
	Decrement(ctx context.Context, tx *gorm.DB, orderID, actorID uuid.UUID, demand []inventory.Demand) error
}

// Notifier receives fire-and-forget customer notifications.
type Notifier interface {
	Notify(ctx context.Context, req notifications.Request) bool
}

// Service is the order lifecycle controller.
type Service interface {
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	ListOwn(ctx context.Context, actor Actor, params ListParams) (*ListResult, error)
	ListAll(ctx context.Context, actor Actor, params ListParams) (*ListResult, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, reason *string) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	Complete(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, target enums.OrderStatus, notes *string) (*models.Order, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Stats(ctx context.Context, actor Actor) (*Stats, error)
}

// ListParams pages through orders, optionally filtered by status.
type ListParams struct {
	Limit  int
	Cursor string
	Status string
}

// ListResult is one page of orders.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// Stats summarises orders for the admin dashboard. RevenueCents counts
// product revenue (total less delivery fee) of approved and completed orders.
type Stats struct {
	Counts       map[enums.OrderStatus]int64 `json:"counts"`
	Total        int64                       `json:"total"`
	RevenueCents int64                       `json:"revenue_cents"`
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	ledger   StockLedger
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.Storefront
}

// NewService builds the lifecycle controller. m may be nil.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, ledger StockLedger, notifier Notifier, logg *logger.Logger, m *metrics.Storefront) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		ledger:   ledger,
		notifier: notifier,
		logg:     logg,
		metrics:  m,
	}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "order")
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

func (s *service) ListOwn(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID := actor.UserID
	return s.list(ctx, ListQuery{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return s.list(ctx, ListQuery{}, params)
}

func (s *service) list(ctx context.Context, query ListQuery, params ListParams) (*ListResult, error) {
	if params.Status != "" {
		status, err := enums.ParseOrderStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	query.Limit = pagination.LimitWithBuffer(params.Limit)

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items, cursor := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	if items == nil {
		items = []models.Order{}
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.apply(ctx, actor, id, EventApprove, nil)
}

func (s *service) Reject(ctx context.Context, actor Actor, id uuid.UUID, reason *string) (*models.Order, error) {
	return s.apply(ctx, actor, id, EventReject, reason)
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.apply(ctx, actor, id, EventCancel, nil)
}

func (s *service) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	return s.apply(ctx, actor, id, EventComplete, nil)
}

// UpdateStatus is the admin entry point: target selects approve, reject or complete.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, target enums.OrderStatus, notes *string) (*models.Order, error) {
	event, err := EventForTarget(target)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, id, event, notes)
}

// apply runs one lifecycle transition in a single transaction: guarded
// status update, stock decrement on approval, outbox event. Any failure
// leaves the order untouched.
func (s *service) apply(ctx context.Context, actor Actor, id uuid.UUID, event Event, notes *string) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		updated *models.Order
		from    enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		order, err := orders.Find(ctx, id)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if err := authorize(actor, event, order); err != nil {
			return err
		}
		to, ok := Next(order.Status, event)
		if !ok {
			return invalidTransition(order.Status, event)
		}

		changed, err := orders.SetStatus(ctx, order.ID, order.Status, to, notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
				WithDetails(map[string]any{"from": order.Status, "event": event})
		}

		if event == EventApprove {
			demand := inventory.Aggregate(order.Items)
			if err := s.ledger.Decrement(ctx, tx, order.ID, actor.UserID, demand); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				UserID:     order.UserID,
				From:       order.Status,
				To:         to,
				Event:      string(event),
				ActorID:    actor.UserID,
				AdminNotes: notes,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}

		from = order.Status
		order.Status = to
		if notes != nil {
			order.AdminNotes = notes
		}
		updated = order
		return nil
	})

	s.metrics.Transition(string(event), err)
	if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		s.metrics.StockShortage()
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, id.String()), map[string]any{
		"event":      string(event),
		"actor_id":   actor.UserID.String(),
		"actor_role": string(actor.Role),
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "order transition refused")
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"from": from, "to": updated.Status}), "order transitioned")

	if req, ok := decisionNotification(updated, event, notes); ok {
		s.notifier.Notify(ctx, req)
	}
	return updated, nil
}

// Delete permanently removes a decided order. Stock is never restored.
func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		order, err := orders.Find(ctx, id)
		if err != nil {
			return repo.Translate(err, "order")
		}
		if err := authorize(actor, EventDelete, order); err != nil {
			return err
		}
		if !Deletable(order.Status) {
			return invalidTransition(order.Status, EventDelete)
		}
		deleted, err := orders.Delete(ctx, order.ID, order.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil
	})
	s.metrics.Transition(string(EventDelete), err)
	if err == nil {
		s.logg.Info(s.logg.WithOrderID(ctx, id.String()), "order deleted")
	}
	return err
}

func (s *service) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	totals, err := s.repo.StatusTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order stats")
	}
	stats := &Stats{Counts: map[enums.OrderStatus]int64{}}
	for _, status := range enums.OrderStatuses() {
		stats.Counts[status] = 0
	}
	for _, row := range totals {
		stats.Counts[row.Status] = row.Count
		stats.Total += row.Count
		if row.Status == enums.OrderStatusApproved || row.Status == enums.OrderStatusCompleted {
			stats.RevenueCents += row.ProductCents
		}
	}
	return stats, nil
}
