package controllers

import (
	"net/http"

	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/api/validators"
	reviewssvc "github.com/floragems/floragems-backend/internal/reviews"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// ReviewAdd creates a purchase-verified review.
func ReviewAdd(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewssvc.AddInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.UserID = userID
		payload.Comment = validators.SanitizeString(payload.Comment, 2000)

		review, err := svc.Add(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

type reviewEditRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ReviewEdit updates the comment on the caller's own review.
func ReviewEdit(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := pathUUID(r, "reviewID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewEditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Edit(r.Context(), reviewID, userID, validators.SanitizeString(payload.Comment, 2000))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ReviewListByProduct returns all reviews for a product, newest first.
func ReviewListByProduct(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ReviewMine returns the caller's review for a product, or null.
func ReviewMine(svc reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.UserReview(r.Context(), productID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}
