package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productStore interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service resolves products for the cart.
type Service struct {
	store productStore
}

func NewService(store productStore) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product store required")
	}
	return &Service{store: store}, nil
}

// Product returns the active listing for id. Inactive or missing products are NotFound.
func (s *Service) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.store.FindActive(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "product")
	}
	return product, nil
}
