package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog listing read by cart and checkout.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Image           *string         `gorm:"column:image"`
	PriceCents      int64           `gorm:"column:price_cents;not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Sizes           []string        `gorm:"column:sizes;type:jsonb;serializer:json"`
	Colors          []string        `gorm:"column:colors;type:jsonb;serializer:json"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	Inventory       *InventoryItem  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OffersSize reports whether size is selectable. A product that lists sizes
// requires one of them; a product without sizes accepts only "".
func (p Product) OffersSize(size string) bool {
	return offers(p.Sizes, size)
}

// OffersColor mirrors OffersSize for colors.
func (p Product) OffersColor(color string) bool {
	return offers(p.Colors, color)
}

func offers(options []string, value string) bool {
	if value == "" {
		return len(options) == 0
	}
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
