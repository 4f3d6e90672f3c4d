package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/floragems/floragems-backend/api/responses"
	pkgAuth "github.com/floragems/floragems-backend/pkg/auth"
	"github.com/floragems/floragems-backend/pkg/config"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// BlockChecker reports whether an account has been blocked by an admin.
type BlockChecker interface {
	IsBlocked(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Auth validates a bearer token and seeds the request context with the claims.
// Blocked accounts are rejected even when their token is still valid.
func Auth(cfg config.JWTConfig, blocks BlockChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if blocks != nil {
				blocked, err := blocks.IsBlocked(r.Context(), claims.UserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate account"))
					return
				}
				if blocked {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account blocked"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
