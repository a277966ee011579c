package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type cartStore interface {
	Snapshot() cart.Snapshot
	AddItem(ctx context.Context, p catalog.Product)
	RemoveItem(ctx context.Context, productID int)
	UpdateQuantity(ctx context.Context, productID, quantity int)
	Clear(ctx context.Context)
}

type productFinder interface {
	Find(ctx context.Context, id int) (*catalog.Product, error)
}

type addItemRequest struct {
	ProductID int `json:"product_id" validate:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

func CartFetch(store cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartAddItem resolves the product from the catalog and adds one unit.
func CartAddItem(store cartStore, finder productFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil || finder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := finder.Find(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.AddItem(r.Context(), *product)
		responses.WriteSuccessStatus(w, http.StatusCreated, store.Snapshot())
	}
}

// CartUpdateItem sets a line quantity; zero removes the line.
func CartUpdateItem(store cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func CartRemoveItem(store cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.RemoveItem(r.Context(), productID)
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func CartClear(store cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, store.Snapshot())
	}
}
