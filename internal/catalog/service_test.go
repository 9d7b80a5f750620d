package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/repo/repotest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestServiceProduct(t *testing.T) {
	db := repotest.Open(t)
	repository := NewRepository(db)
	svc, err := NewService(repository)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	product := &models.Product{
		Name:            "Linen shirt",
		PriceCents:      10000,
		DiscountPercent: decimal.NewFromInt(10),
		Sizes:           []string{"M", "L"},
	}
	if err := repository.Create(context.Background(), product); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Product(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if got.PriceCents != 10000 || !got.DiscountPercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected pricing %d %s", got.PriceCents, got.DiscountPercent)
	}
	if got.Inventory == nil || got.Inventory.StockQty != 0 {
		t.Fatalf("expected empty inventory row, got %+v", got.Inventory)
	}
	if !got.OffersSize("M") || got.OffersSize("XL") {
		t.Fatalf("unexpected sizes %v", got.Sizes)
	}
}

func TestServiceProductInactive(t *testing.T) {
	db := repotest.Open(t)
	product := repotest.SeedProduct(t, db, models.Product{Name: "Old", PriceCents: 100}, 1)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	svc, _ := NewService(NewRepository(db))
	if _, err := svc.Product(context.Background(), product.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Product(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Product(context.Background(), uuid.Nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
