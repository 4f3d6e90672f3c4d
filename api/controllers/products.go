package controllers

import (
	"net/http"

	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/api/validators"
	productssvc "github.com/floragems/floragems-backend/internal/products"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// ProductAdd creates a catalog listing.
func ProductAdd(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productssvc.AddInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Add(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate applies partial edits to a listing.
func ProductUpdate(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productssvc.UpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductRemove deletes a listing and its size variants.
func ProductRemove(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "product deleted"})
	}
}

// ProductSingle returns one listing with its sizes.
func ProductSingle(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Single(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList returns the storefront catalog: active listings only.
func ProductList(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ProductListAll pages through every listing for the admin panel.
func ProductListAll(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductToggleStatus flips a listing's storefront visibility.
func ProductToggleStatus(svc productssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ToggleStatus(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
