package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

type pageFetcher interface {
	Page(ctx context.Context, limit, offset int) (*catalog.Page, error)
}

type productPager interface {
	Next(ctx context.Context) ([]catalog.Product, error)
	Snapshot() catalog.PagerSnapshot
	Reset() catalog.PagerSnapshot
}

type productListResponse struct {
	Products []catalog.Product `json:"products"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	HasMore  bool              `json:"has_more"`
}

type loadMoreResponse struct {
	Products []catalog.Product     `json:"products"`
	Cursor   catalog.PagerSnapshot `json:"cursor"`
}

// ProductsList serves one page of the catalog.
func ProductsList(src pageFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := src.Page(r.Context(), params.Limit, params.Offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productListResponse{
			Products: page.Products,
			Total:    page.Total,
			Limit:    params.Limit,
			Offset:   params.Offset,
			HasMore:  pagination.HasMore(params, len(page.Products), page.Total),
		})
	}
}

// ProductsMore advances the shared "load more" cursor.
func ProductsMore(pager productPager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		products, err := pager.Next(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if products == nil {
			products = []catalog.Product{}
		}
		responses.WriteSuccess(w, loadMoreResponse{Products: products, Cursor: pager.Snapshot()})
	}
}

// ProductsMoreReset rewinds the shared cursor so a new browsing pass starts over.
func ProductsMoreReset(pager productPager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, loadMoreResponse{Products: []catalog.Product{}, Cursor: pager.Reset()})
	}
}
