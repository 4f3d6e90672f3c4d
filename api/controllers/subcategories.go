package controllers

import (
	"net/http"

	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/api/validators"
	subcatsvc "github.com/floragems/floragems-backend/internal/subcategories"
	"github.com/floragems/floragems-backend/pkg/logger"
)

type subCategoryAddRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// SubCategoryAdd creates a classification label.
func SubCategoryAdd(svc subcatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload subCategoryAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Add(r.Context(), validators.SanitizeString(payload.Name, 80))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// SubCategoryList returns all labels sorted by name.
func SubCategoryList(svc subcatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SubCategoryRemove deletes a label.
func SubCategoryRemove(svc subcatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "subCategoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "sub-category deleted"})
	}
}
