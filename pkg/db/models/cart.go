package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user cart document. Version increments on every write and
// guards the compare-and-swap update.
type Cart struct {
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	Items     []CartLine `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Version   int64      `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartLine is keyed by (ProductID, Size, Color); an empty Size or Color means
// the variant has none.
type CartLine struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Image           *string         `json:"image,omitempty"`
	Quantity        int             `json:"quantity"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
	UnitPriceCents  int64           `json:"unit_price_cents"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotalCents  int64           `json:"line_total_cents"`
}
