package middlewares

import (
	"net/http"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
)

// ContentLengthMiddleware caps POST bodies, including chunked ones whose
// length is unknown up front.
func ContentLengthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	limit := cfg.Server.MaxContentLength
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if r.ContentLength > limit {
					http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
