package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/saree-storefront/api/responses"
	"github.com/angelmondragon/saree-storefront/api/validators"
	productsvc "github.com/angelmondragon/saree-storefront/internal/products"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
)

const maxProductPage = 500

// ProductList returns the active catalog, optionally filtered by ?category=
// and truncated by ?limit=.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", maxProductPage, 1, maxProductPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListProducts(r.Context(), validators.QueryString(r, "category", 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(items) > limit {
			items = items[:limit]
		}
		responses.WriteSuccess(w, items)
	}
}

// ProductGet returns a single active product.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		item, err := svc.GetProduct(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
