package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ubi-economy/staking-tasks-service/internal/observability/tracing"
)

func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := tracing.NewContext(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
