package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type checkoutService interface {
	Summary(ctx context.Context) checkout.Summary
	PlaceOrder(ctx context.Context, form checkout.Form) (*checkout.Confirmation, error)
}

func CheckoutSummary(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Summary(r.Context()))
	}
}

// Checkout places the order. Form validation and its messages belong to the checkout service.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		var form checkout.Form
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmation, err := svc.PlaceOrder(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}
