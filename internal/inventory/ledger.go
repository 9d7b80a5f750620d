package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Demand is the quantity an order needs from one product.
type Demand struct {
	ProductID uuid.UUID
	Quantity  int
}

// Shortage is attached as details to INSUFFICIENT_STOCK errors.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Ledger owns stock levels and the movement journal.
type Ledger struct {
	repo.Base
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{Base: repo.NewBase(db)}
}

// Aggregate sums order lines per product and sorts by product id so
// concurrent approvals lock rows in the same order.
func Aggregate(items []models.OrderItem) []Demand {
	totals := map[uuid.UUID]int{}
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}
	out := make([]Demand, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Demand{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// Stock returns the inventory row for productID.
func (l *Ledger) Stock(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := l.DB(ctx).Where("product_id = ?", productID).First(&item).Error; err != nil {
		return nil, repo.Translate(err, "inventory item")
	}
	return &item, nil
}

// Decrement removes demand from stock for orderID. Each product is
// decremented with a guarded update so stock can never go negative; the
// first shortfall aborts with INSUFFICIENT_STOCK and the caller must roll back
// tx. A nil tx runs on the ledger's own connection.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, orderID, actorID uuid.UUID, demand []Demand) error {
	bound := l.Bind(tx)
	db := bound.DB(ctx)
	for _, d := range demand {
		if d.Quantity <= 0 {
			continue
		}
		res := db.Model(&models.InventoryItem{}).
			Where("product_id = ? AND stock_qty >= ?", d.ProductID, d.Quantity).
			UpdateColumns(map[string]any{
				"stock_qty":  gorm.Expr("stock_qty - ?", d.Quantity),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
		}
		if res.RowsAffected == 0 {
			return shortage(db, d)
		}

		order := orderID
		actor := actorID
		movement := models.InventoryMovement{
			ProductID: d.ProductID,
			OrderID:   &order,
			Delta:     -d.Quantity,
			Reason:    enums.MovementReasonOrderApproved,
			ActorID:   &actor,
		}
		if err := db.Create(&movement).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record movement")
		}
	}
	return nil
}

func shortage(db *gorm.DB, d Demand) error {
	available := 0
	var item models.InventoryItem
	err := db.Where("product_id = ?", d.ProductID).First(&item).Error
	switch {
	case err == nil:
		available = item.StockQty
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(Shortage{ProductID: d.ProductID, Requested: d.Quantity, Available: available})
}

// Restock adds qty units and journals the movement.
func (l *Ledger) Restock(ctx context.Context, productID, actorID uuid.UUID, qty int) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	var out models.InventoryItem
	err := l.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").Where("id = ?", productID).First(&product).Error; err != nil {
			return repo.Translate(err, "product")
		}
		row := models.InventoryItem{ProductID: productID, StockQty: qty}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"stock_qty": gorm.Expr("inventory_items.stock_qty + ?", qty)}),
		}).Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock")
		}
		actor := actorID
		movement := models.InventoryMovement{
			ProductID: productID,
			Delta:     qty,
			Reason:    enums.MovementReasonRestock,
			ActorID:   &actor,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record movement")
		}
		return tx.Where("product_id = ?", productID).First(&out).Error
	})
	if err != nil {
		return nil, repo.Translate(err, "inventory item")
	}
	return &out, nil
}

// Movements lists the journal for productID, newest first.
func (l *Ledger) Movements(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.InventoryMovement
	err := l.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return rows, nil
}

