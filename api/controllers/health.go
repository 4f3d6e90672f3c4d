package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/pkg/config"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// Pinger is anything whose liveness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FloraGems-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the database and cache before reporting ready.
func HealthReady(cfg *config.Config, database, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FloraGems-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
