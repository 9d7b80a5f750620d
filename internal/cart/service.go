package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultMaxRetries = 5

type productLoader interface {
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for the authenticated user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, input UpdateQuantityInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, key LineKey) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearVersion(ctx context.Context, userID uuid.UUID, version int64) (bool, error)
}

type service struct {
	repo       Repository
	products   productLoader
	maxRetries int
	logg       *logger.Logger
}

// NewService builds a cart service. maxRetries bounds compare-and-swap
// attempts per mutation; values below 1 use the default.
func NewService(repo Repository, products productLoader, maxRetries int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}
	return &service{repo: repo, products: products, maxRetries: maxRetries, logg: logg}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cart, err := s.repo.Find(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.CreateEmpty(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	cart, err = s.repo.Find(ctx, userID)
	if err != nil {
		return nil, repo.Translate(err, "cart")
	}
	return cart, nil
}

// AddItem merges quantity into the line for the same variant or appends a
// new line priced from the current catalog. A merged line keeps the price it
// was first added at.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.products.Product(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.OffersSize(input.Size) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size not offered").
			WithDetails(map[string]any{"size": input.Size, "sizes": product.Sizes})
	}
	if !product.OffersColor(input.Color) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "color not offered").
			WithDetails(map[string]any{"color": input.Color, "colors": product.Colors})
	}
	if product.PriceCents < 0 || !ValidDiscount(product.DiscountPercent) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product pricing invalid")
	}

	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool) {
		for i := range lines {
			if input.LineKey.matches(lines[i]) {
				lines[i].Quantity += input.Quantity
				lines[i].LineTotalCents = LineTotal(lines[i].UnitPriceCents, lines[i].DiscountPercent, lines[i].Quantity)
				return lines, true
			}
		}
		return append(lines, models.CartLine{
			ProductID:       product.ID,
			Name:            product.Name,
			Image:           product.Image,
			Quantity:        input.Quantity,
			Size:            input.Size,
			Color:           input.Color,
			UnitPriceCents:  product.PriceCents,
			DiscountPercent: product.DiscountPercent,
			LineTotalCents:  LineTotal(product.PriceCents, product.DiscountPercent, input.Quantity),
		}), true
	})
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// and unknown lines leave the cart untouched.
func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, input UpdateQuantityInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return s.Get(ctx, userID)
	}
	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool) {
		for i := range lines {
			if input.LineKey.matches(lines[i]) {
				if lines[i].Quantity == input.Quantity {
					return lines, false
				}
				lines[i].Quantity = input.Quantity
				lines[i].LineTotalCents = LineTotal(lines[i].UnitPriceCents, lines[i].DiscountPercent, input.Quantity)
				return lines, true
			}
		}
		return lines, false
	})
}

// RemoveItem drops the matching line; absent lines are a no-op.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, key LineKey) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(lines []models.CartLine) ([]models.CartLine, bool) {
		out := lines[:0]
		removed := false
		for _, line := range lines {
			if key.matches(line) {
				removed = true
				continue
			}
			out = append(out, line)
		}
		return out, removed
	})
}

// Clear empties the cart unconditionally.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ClearVersion empties the cart only if it is still at version. It reports
// false, leaving the cart untouched, when a newer write exists.
func (s *service) ClearVersion(ctx context.Context, userID uuid.UUID, version int64) (bool, error) {
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	ok, err := s.repo.SwapItems(ctx, userID, version, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return ok, nil
}

// mutate applies fn to a copy of the stored lines and writes the result with
// a version check, reloading and retrying when a concurrent write wins.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func([]models.CartLine) ([]models.CartLine, bool)) (*models.Cart, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := s.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		lines := make([]models.CartLine, len(cart.Items))
		copy(lines, cart.Items)

		next, changed := fn(lines)
		if !changed {
			return cart, nil
		}
		ok, err := s.repo.SwapItems(ctx, userID, cart.Version, next)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}
		if ok {
			cart.Items = next
			cart.Version++
			return cart, nil
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "attempt": attempt})
		s.logg.Debug(logCtx, "cart version conflict, retrying")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart modified concurrently, retry")
}
