package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/api/validators"
	cartsvc "github.com/floragems/floragems-backend/internal/cart"
	"github.com/floragems/floragems-backend/pkg/logger"
)

type cartAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required,max=32"`
}

type cartUpdateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required,max=32"`
	Qty       int       `json:"qty" validate:"gte=0"`
}

// CartAdd puts one unit of a product size into the caller's cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Add(r.Context(), userID, payload.ProductID, payload.Size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CartUpdate sets a cart entry's quantity; zero removes the entry.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Update(r.Context(), userID, payload.ProductID, payload.Size, payload.Qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "cart updated"})
	}
}

// CartGet returns the caller's cart entries.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
