package orders

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type recordingNotifier struct {
	mu   sync.Mutex
	reqs []notifications.Request
}

func (r *recordingNotifier) Notify(ctx context.Context, req notifications.Request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return true
}

type harness struct {
	db       *gorm.DB
	svc      Service
	ledger   *inventory.Ledger
	notifier *recordingNotifier
	admin    Actor
	customer Actor
	product  models.Product
}

func newHarness(t *testing.T, stock int) harness {
	t.Helper()
	db := repotest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	product := repotest.SeedProduct(t, db, models.Product{Name: "Tote", PriceCents: 10000, DiscountPercent: decimal.Zero}, stock)
	customer := repotest.SeedUser(t, db, models.User{Name: "Customer"})
	admin := repotest.SeedUser(t, db, models.User{Name: "Admin", Role: enums.UserRoleAdmin})

	ledger := inventory.NewLedger(db)
	notifier := &recordingNotifier{}
	emitter := outbox.NewService(outbox.NewRepository(db), logg)
	svc, err := NewService(NewRepository(db), pkgdb.Wrap(db), emitter, ledger, notifier, logg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return harness{
		db:       db,
		svc:      svc,
		ledger:   ledger,
		notifier: notifier,
		admin:    Actor{UserID: admin.ID, Role: enums.UserRoleAdmin},
		customer: Actor{UserID: customer.ID, Role: enums.UserRoleUser},
		product:  product,
	}
}

func (h harness) placeOrder(t *testing.T, qty int) *models.Order {
	t.Helper()
	subtotal := h.product.PriceCents * int64(qty)
	order := &models.Order{
		UserID:          h.customer.UserID,
		CustomerName:    "Customer",
		CustomerEmail:   "c@example.com",
		ShippingAddress: "1 Main St",
		Country:         "Egypt",
		Governorate:     "Giza",
		Items: []models.OrderItem{{
			ProductID:       h.product.ID,
			Name:            h.product.Name,
			Quantity:        qty,
			UnitPriceCents:  h.product.PriceCents,
			DiscountPercent: decimal.Zero,
			LineTotalCents:  subtotal,
		}},
		SubtotalCents:    subtotal,
		DeliveryFeeCents: 5000,
		TotalCents:       subtotal + 5000,
		PaymentMethod:    enums.PaymentMethodCOD,
		Status:           enums.OrderStatusPending,
	}
	if err := NewRepository(h.db).Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (h harness) stock(t *testing.T) int {
	t.Helper()
	item, err := h.ledger.Stock(context.Background(), h.product.ID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	return item.StockQty
}

func (h harness) status(t *testing.T, id uuid.UUID) enums.OrderStatus {
	t.Helper()
	order, err := NewRepository(h.db).Find(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return order.Status
}

func TestApproveSecondOrderFailsOnShortage(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	first := h.placeOrder(t, 3)
	second := h.placeOrder(t, 3)

	approved, err := h.svc.Approve(ctx, h.admin, first.ID)
	if err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if approved.Status != enums.OrderStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if h.stock(t) != 2 {
		t.Fatalf("expected stock 2, got %d", h.stock(t))
	}

	_, err = h.svc.Approve(ctx, h.admin, second.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	shortage, ok := pkgerrors.As(err).Details().(inventory.Shortage)
	if !ok || shortage.ProductID != h.product.ID || shortage.Requested != 3 || shortage.Available != 2 {
		t.Fatalf("unexpected shortage %+v", pkgerrors.As(err).Details())
	}
	if h.status(t, second.ID) != enums.OrderStatusPending {
		t.Fatalf("second order must stay pending")
	}
	if h.stock(t) != 2 {
		t.Fatalf("stock must be unchanged after failed approval, got %d", h.stock(t))
	}

	var events int64
	h.db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&events)
	if events != 1 {
		t.Fatalf("expected one status event, got %d", events)
	}
	if len(h.notifier.reqs) != 1 || h.notifier.reqs[0].Type != enums.NotificationTypeOrderApproved {
		t.Fatalf("expected one approval notification, got %+v", h.notifier.reqs)
	}
}

func TestApproveAggregatesVariantsOfSameProduct(t *testing.T) {
	h := newHarness(t, 4)
	order := h.placeOrder(t, 2)
	order.Items = append(order.Items, models.OrderItem{ProductID: h.product.ID, Quantity: 3, Size: "L"})
	h.db.Model(order).Select("items").Updates(order)

	_, err := h.svc.Approve(context.Background(), h.admin, order.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected shortage for 5 of 4, got %v", err)
	}
	if pkgerrors.As(err).Details().(inventory.Shortage).Requested != 5 {
		t.Fatalf("expected summed demand 5")
	}
}

func TestRejectStoresReasonWithoutTouchingStock(t *testing.T) {
	h := newHarness(t, 5)
	order := h.placeOrder(t, 2)
	reason := "address unreachable"

	rejected, err := h.svc.Reject(context.Background(), h.admin, order.ID, &reason)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.OrderStatusRejected || rejected.AdminNotes == nil || *rejected.AdminNotes != reason {
		t.Fatalf("unexpected order %+v", rejected)
	}
	if h.stock(t) != 5 {
		t.Fatalf("reject must not touch stock")
	}
	stored, _ := NewRepository(h.db).Find(context.Background(), order.ID)
	if stored.AdminNotes == nil || *stored.AdminNotes != reason {
		t.Fatalf("notes not persisted")
	}
	if len(h.notifier.reqs) != 1 || h.notifier.reqs[0].Type != enums.NotificationTypeOrderRejected {
		t.Fatalf("expected reject notification, got %+v", h.notifier.reqs)
	}

	if _, err := h.svc.Approve(context.Background(), h.admin, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("approving a rejected order must conflict, got %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	order := h.placeOrder(t, 1)

	if _, err := h.svc.Cancel(ctx, h.admin, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("admin cancel must be forbidden, got %v", err)
	}
	stranger := Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	if _, err := h.svc.Cancel(ctx, stranger, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("stranger cancel must be forbidden, got %v", err)
	}

	cancelled, err := h.svc.Cancel(ctx, h.customer, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if len(h.notifier.reqs) != 0 {
		t.Fatalf("cancel must not notify")
	}
	if _, err := h.svc.Cancel(ctx, h.customer, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second cancel must conflict, got %v", err)
	}
}

func TestCompleteAndDelete(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	order := h.placeOrder(t, 1)

	if err := h.svc.Delete(ctx, h.admin, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("deleting a pending order must conflict, got %v", err)
	}
	if _, err := h.svc.Complete(ctx, h.admin, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("completing a pending order must conflict, got %v", err)
	}
	if _, err := h.svc.UpdateStatus(ctx, h.admin, order.ID, enums.OrderStatusApproved, nil); err != nil {
		t.Fatalf("approve via status: %v", err)
	}
	completed, err := h.svc.UpdateStatus(ctx, h.admin, order.ID, enums.OrderStatusCompleted, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	if err := h.svc.Delete(ctx, h.customer, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("customer delete must be forbidden, got %v", err)
	}
	if err := h.svc.Delete(ctx, h.admin, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.svc.Get(ctx, h.admin, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if h.stock(t) != 4 {
		t.Fatalf("delete must not restore stock, got %d", h.stock(t))
	}
}

func TestGetAndListVisibility(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	order := h.placeOrder(t, 1)
	h.placeOrder(t, 2)

	if _, err := h.svc.Get(ctx, h.customer, order.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := h.svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("stranger get must be forbidden, got %v", err)
	}

	own, err := h.svc.ListOwn(ctx, h.customer, ListParams{Limit: 10})
	if err != nil || len(own.Items) != 2 || own.Cursor != "" {
		t.Fatalf("unexpected own list %+v %v", own, err)
	}
	other, err := h.svc.ListOwn(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, ListParams{})
	if err != nil || len(other.Items) != 0 {
		t.Fatalf("stranger should see no orders: %+v %v", other, err)
	}

	if _, err := h.svc.ListAll(ctx, h.customer, ListParams{}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("customer list all must be forbidden, got %v", err)
	}
	page, err := h.svc.ListAll(ctx, h.admin, ListParams{Limit: 1})
	if err != nil || len(page.Items) != 1 || page.Cursor == "" {
		t.Fatalf("expected first page with cursor: %+v %v", page, err)
	}
	filtered, err := h.svc.ListAll(ctx, h.admin, ListParams{Status: "approved"})
	if err != nil || len(filtered.Items) != 0 {
		t.Fatalf("expected no approved orders: %+v %v", filtered, err)
	}
	if _, err := h.svc.ListAll(ctx, h.admin, ListParams{Status: "shipped"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for unknown status, got %v", err)
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	a := h.placeOrder(t, 1)
	b := h.placeOrder(t, 2)
	c := h.placeOrder(t, 1)
	h.placeOrder(t, 1)

	if _, err := h.svc.Approve(ctx, h.admin, a.ID); err != nil {
		t.Fatalf("approve a: %v", err)
	}
	if _, err := h.svc.Approve(ctx, h.admin, b.ID); err != nil {
		t.Fatalf("approve b: %v", err)
	}
	if _, err := h.svc.Complete(ctx, h.admin, b.ID); err != nil {
		t.Fatalf("complete b: %v", err)
	}
	if _, err := h.svc.Reject(ctx, h.admin, c.ID, nil); err != nil {
		t.Fatalf("reject c: %v", err)
	}

	stats, err := h.svc.Stats(ctx, h.admin)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Counts[enums.OrderStatusPending] != 1 || stats.Counts[enums.OrderStatusCancelled] != 0 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.RevenueCents != 30000 {
		t.Fatalf("expected revenue 30000, got %d", stats.RevenueCents)
	}
	if _, err := h.svc.Stats(ctx, h.customer); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("customer stats must be forbidden, got %v", err)
	}
}
