package cart

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	product models.Product
	userID  uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := repotest.Open(t)
	product := repotest.SeedProduct(t, db, models.Product{
		Name:            "Linen shirt",
		PriceCents:      10000,
		DiscountPercent: decimal.NewFromInt(10),
		Sizes:           []string{"M", "L"},
		Colors:          []string{"red"},
	}, 10)
	products, err := catalog.NewService(catalog.NewRepository(db))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc, err := NewService(NewRepository(db), products, 3, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{db: db, svc: svc, product: product, userID: uuid.New()}
}

func TestGetCreatesEmptyCart(t *testing.T) {
	f := newFixture(t)
	cart, err := f.svc.Get(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cart.Items) != 0 || cart.Version != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	again, err := f.svc.Get(context.Background(), f.userID)
	if err != nil || again.UserID != f.userID {
		t.Fatalf("second get: %+v %v", again, err)
	}
}

func TestAddItemMergesSameVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := LineKey{ProductID: f.product.ID, Size: "M", Color: "red"}

	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Price changes after the first add must not reprice the existing line.
	f.db.Model(&models.Product{}).Where("id = ?", f.product.ID).Update("price_cents", 20000)

	cart, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(cart.Items))
	}
	line := cart.Items[0]
	if line.Quantity != 2 || line.UnitPriceCents != 10000 || line.LineTotalCents != 18000 {
		t.Fatalf("unexpected line %+v", line)
	}

	cart, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Size: "L", Color: "red"}, Quantity: 1})
	if err != nil {
		t.Fatalf("add other size: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected separate line for other size, got %d", len(cart.Items))
	}

	stored, _ := f.svc.Get(ctx, f.userID)
	if stored.Version != 3 {
		t.Fatalf("expected version 3, got %d", stored.Version)
	}
	if FromModel(stored).SubtotalCents != 18000+20000*9/10 {
		t.Fatalf("unexpected subtotal %d", FromModel(stored).SubtotalCents)
	}
}

func TestAddItemRejectsUnknownVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Size: "XXL"}, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for size, got %v", err)
	}
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Size: "M", Color: "blue"}, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for color, got %v", err)
	}
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Color: "red"}, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation when size is omitted, got %v", err)
	}
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Size: "M"}, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation when color is omitted, got %v", err)
	}
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: uuid.New()}, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID}, Quantity: 0})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for quantity, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := LineKey{ProductID: f.product.ID, Size: "M", Color: "red"}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := f.svc.UpdateQuantity(ctx, f.userID, UpdateQuantityInput{LineKey: key, Quantity: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.Items[0].Quantity != 3 || cart.Items[0].LineTotalCents != 27000 {
		t.Fatalf("unexpected line %+v", cart.Items[0])
	}

	before := cart.Version
	for _, qty := range []int{0, -2} {
		cart, err = f.svc.UpdateQuantity(ctx, f.userID, UpdateQuantityInput{LineKey: key, Quantity: qty})
		if err != nil {
			t.Fatalf("update %d: %v", qty, err)
		}
		if cart.Items[0].Quantity != 3 || cart.Version != before {
			t.Fatalf("quantity %d should be ignored, got %+v", qty, cart)
		}
	}

	cart, err = f.svc.UpdateQuantity(ctx, f.userID, UpdateQuantityInput{LineKey: LineKey{ProductID: f.product.ID, Size: "L", Color: "red"}, Quantity: 2})
	if err != nil || len(cart.Items) != 1 || cart.Version != before {
		t.Fatalf("unknown line should be a no-op: %+v %v", cart, err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := LineKey{ProductID: f.product.ID, Size: "M", Color: "red"}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: LineKey{ProductID: f.product.ID, Size: "L", Color: "red"}, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := f.svc.RemoveItem(ctx, f.userID, key)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Size != "L" {
		t.Fatalf("unexpected items %+v", cart.Items)
	}

	version := cart.Version
	cart, err = f.svc.RemoveItem(ctx, f.userID, key)
	if err != nil || cart.Version != version {
		t.Fatalf("removing an absent line should be a no-op: %+v %v", cart, err)
	}

	if err := f.svc.Clear(ctx, f.userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cart, _ = f.svc.Get(ctx, f.userID)
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart.Items)
	}
}

func TestClearVersionSkipsNewerCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := LineKey{ProductID: f.product.ID, Size: "M", Color: "red"}
	cart, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	seen := cart.Version
	if _, err := f.svc.AddItem(ctx, f.userID, AddItemInput{LineKey: key, Quantity: 1}); err != nil {
		t.Fatalf("add again: %v", err)
	}

	cleared, err := f.svc.ClearVersion(ctx, f.userID, seen)
	if err != nil || cleared {
		t.Fatalf("stale version must not clear: cleared=%v err=%v", cleared, err)
	}
	stored, _ := f.svc.Get(ctx, f.userID)
	if len(stored.Items) != 1 || stored.Items[0].Quantity != 2 {
		t.Fatalf("cart should be untouched, got %+v", stored.Items)
	}

	cleared, err = f.svc.ClearVersion(ctx, f.userID, stored.Version)
	if err != nil || !cleared {
		t.Fatalf("current version should clear: cleared=%v err=%v", cleared, err)
	}
	stored, _ = f.svc.Get(ctx, f.userID)
	if len(stored.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", stored.Items)
	}
}

type racingRepo struct {
	Repository
	losses int
	swaps  int
}

func (r *racingRepo) SwapItems(ctx context.Context, userID uuid.UUID, version int64, items []models.CartLine) (bool, error) {
	r.swaps++
	if r.losses > 0 {
		r.losses--
		return false, nil
	}
	return r.Repository.SwapItems(ctx, userID, version, items)
}

type fixedProduct struct{ product *models.Product }

func (f fixedProduct) Product(context.Context, uuid.UUID) (*models.Product, error) {
	return f.product, nil
}

func TestMutateRetriesOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	racing := &racingRepo{Repository: NewRepository(f.db), losses: 2}
	svc, _ := NewService(racing, fixedProduct{product: &f.product}, 3, testLogger())

	key := LineKey{ProductID: f.product.ID, Size: "L", Color: "red"}
	cart, err := svc.AddItem(context.Background(), f.userID, AddItemInput{LineKey: key, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if racing.swaps != 3 || len(cart.Items) != 1 {
		t.Fatalf("expected success on third attempt, swaps=%d items=%d", racing.swaps, len(cart.Items))
	}

	racing.losses = 3
	_, err = svc.AddItem(context.Background(), f.userID, AddItemInput{LineKey: key, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict after exhausting retries, got %v", err)
	}
}
