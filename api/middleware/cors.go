package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173", // storefront dev server
	"http://localhost:5174", // admin panel dev server
}

// CORS returns middleware that applies the API's allowed origin policy.
// Extra origins (deployed storefront and admin URLs) come from config.
func CORS(extraOrigins ...string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(defaultCORSOrigins)+len(extraOrigins))
	origins = append(origins, defaultCORSOrigins...)
	for _, origin := range extraOrigins {
		if o := strings.TrimSpace(origin); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
