package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists one cart document per user.
type Repository interface {
	Find(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateEmpty(ctx context.Context, userID uuid.UUID) error
	SwapItems(ctx context.Context, userID uuid.UUID, version int64, items []models.CartLine) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a cart repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Find(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	return &cart, nil
}

// CreateEmpty inserts an empty cart unless one already exists.
func (r *repository) CreateEmpty(ctx context.Context, userID uuid.UUID) error {
	cart := models.Cart{UserID: userID, Items: []models.CartLine{}}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
}

// SwapItems replaces the items when the stored version still equals version.
// It reports false when another writer got there first.
func (r *repository) SwapItems(ctx context.Context, userID uuid.UUID, version int64, items []models.CartLine) (bool, error) {
	raw, err := encodeLines(items)
	if err != nil {
		return false, err
	}
	res := r.DB(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND version = ?", userID, version).
		UpdateColumns(map[string]any{
			"items":      raw,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Clear empties the cart regardless of its version.
func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).Model(&models.Cart{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]any{
			"items":      "[]",
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

func encodeLines(items []models.CartLine) (string, error) {
	if items == nil {
		items = []models.CartLine{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
