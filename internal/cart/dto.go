package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// LineKey identifies a cart line. Empty Size or Color means the variant has none.
type LineKey struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"max=32"`
	Color     string    `json:"color" validate:"max=32"`
}

func (k LineKey) matches(line models.CartLine) bool {
	return line.ProductID == k.ProductID && line.Size == k.Size && line.Color == k.Color
}

// AddItemInput is the payload for adding units of a product variant.
type AddItemInput struct {
	LineKey
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

// UpdateQuantityInput sets a line's quantity. Values below 1 are ignored.
type UpdateQuantityInput struct {
	LineKey
	Quantity int `json:"quantity"`
}

// CartDTO is the API view of a cart.
type CartDTO struct {
	UserID        uuid.UUID         `json:"user_id"`
	Items         []models.CartLine `json:"items"`
	ItemCount     int               `json:"item_count"`
	SubtotalCents int64             `json:"subtotal_cents"`
	Version       int64             `json:"version"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// FromModel maps a cart into its DTO.
func FromModel(c *models.Cart) CartDTO {
	items := c.Items
	if items == nil {
		items = []models.CartLine{}
	}
	return CartDTO{
		UserID:        c.UserID,
		Items:         items,
		ItemCount:     ItemCount(items),
		SubtotalCents: Subtotal(items),
		Version:       c.Version,
		UpdatedAt:     c.UpdatedAt,
	}
}
