package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the checkout snapshot. Items and money fields are written once at
// creation; only Status and AdminNotes change afterwards.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CustomerName     string              `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail    string              `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerPhone    *string             `gorm:"column:customer_phone" json:"customer_phone,omitempty"`
	ShippingAddress  string              `gorm:"column:shipping_address;not null" json:"shipping_address"`
	Country          string              `gorm:"column:country;not null" json:"country"`
	Governorate      string              `gorm:"column:governorate;not null" json:"governorate"`
	Items            []OrderItem         `gorm:"column:items;type:jsonb;serializer:json;not null" json:"items"`
	SubtotalCents    int64               `gorm:"column:subtotal_cents;not null" json:"subtotal_cents"`
	DeliveryFeeCents int64               `gorm:"column:delivery_fee_cents;not null" json:"delivery_fee_cents"`
	TotalCents       int64               `gorm:"column:total_cents;not null" json:"total_cents"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null" json:"payment_method"`
	Status           enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending';index" json:"status"`
	AdminNotes       *string             `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable line of an order.
type OrderItem struct {
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
