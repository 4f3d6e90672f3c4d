package controllers

import (
	"net/http"

	"github.com/floragems/floragems-backend/api/responses"
	statssvc "github.com/floragems/floragems-backend/internal/stats"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// StatsSummary returns the dashboard headline numbers.
func StatsSummary(svc statssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// StatsTopProduct returns the best-selling product across paid orders.
func StatsTopProduct(svc statssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := svc.TopProduct(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, top)
	}
}

// StatsTopCustomer returns the highest-spending customer across paid orders.
func StatsTopCustomer(svc statssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := svc.TopCustomer(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, top)
	}
}
