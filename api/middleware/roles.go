package middleware

import (
	"net/http"

	"github.com/floragems/floragems-backend/api/responses"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/enums"
	"github.com/floragems/floragems-backend/pkg/logger"
)

func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != string(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates the admin surface.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(enums.RoleAdmin, logg)
}
