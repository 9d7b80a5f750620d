package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type DeliveryFeeStore interface {
	DeliveryFee(ctx context.Context) (int64, error)
	SetDeliveryFee(ctx context.Context, cents int64) error
}

type deliveryFeeBody struct {
	DeliveryFeeCents *int64 `json:"delivery_fee_cents" validate:"required,min=0"`
}

func AdminGetDeliveryFee(svc DeliveryFeeStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		fee, err := svc.DeliveryFee(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deliveryFeeBody{DeliveryFeeCents: &fee})
	}
}

// AdminSetDeliveryFee replaces the flat fee applied to new checkouts.
func AdminSetDeliveryFee(svc DeliveryFeeStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		var body deliveryFeeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetDeliveryFee(r.Context(), *body.DeliveryFeeCents); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, body)
	}
}
