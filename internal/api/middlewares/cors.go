package middlewares

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
)

const maxAge = 300

// CorsMiddleware lets the configured ops dashboards call the API. An empty
// origin list allows any origin.
func CorsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         maxAge,
	})
	return c.Handler
}
