package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// InventoryItem is the ledger entry for one product. StockQty never drops below zero.
type InventoryItem struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	StockQty  int       `gorm:"column:stock_qty;not null;default:0;check:stock_qty >= 0" json:"stock_qty"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// InventoryMovement records every committed stock change.
type InventoryMovement struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	OrderID   *uuid.UUID           `gorm:"column:order_id;type:uuid;index" json:"order_id,omitempty"`
	Delta     int                  `gorm:"column:delta;not null" json:"delta"`
	Reason    enums.MovementReason `gorm:"column:reason;type:movement_reason;not null" json:"reason"`
	ActorID   *uuid.UUID           `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
