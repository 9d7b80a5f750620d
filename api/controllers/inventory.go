package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultMovementLimit = 20

// InventoryLedger is the read and restock side of the stock ledger.
type InventoryLedger interface {
	Stock(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	Restock(ctx context.Context, productID, actorID uuid.UUID, qty int) (*models.InventoryItem, error)
	Movements(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryMovement, error)
}

type inventoryResponse struct {
	Item      *models.InventoryItem      `json:"item"`
	Movements []models.InventoryMovement `json:"movements"`
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// AdminInventory returns the stock level of a product and its latest movements.
func AdminInventory(ledger InventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory unavailable"))
			return
		}
		productID, err := uuidParam(r, "productId", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "movements", defaultMovementLimit, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := ledger.Stock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, err := ledger.Movements(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if movements == nil {
			movements = []models.InventoryMovement{}
		}
		responses.WriteSuccess(w, inventoryResponse{Item: item, Movements: movements})
	}
}

func AdminRestock(ledger InventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory unavailable"))
			return
		}
		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId", "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := ledger.Restock(r.Context(), productID, actorID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
