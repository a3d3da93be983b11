package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/observability/tracing"
)

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		logger := log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		// Attach traceId into each log within the request chain
		if traceId := r.Context().Value(tracing.TraceIdKey); traceId != nil {
			logger = logger.With().Interface("traceId", traceId).Logger()
		}

		logger.Debug().Msg("request received")
		r = r.WithContext(logger.WithContext(r.Context()))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logEvent := logger.Info()
		if ww.Status() >= http.StatusInternalServerError {
			logEvent = logger.Warn()
		}
		if tracingInfo := r.Context().Value(tracing.TracingInfoKey); tracingInfo != nil {
			logEvent = logEvent.Interface("tracingInfo", tracingInfo)
		}

		logEvent.
			Int("status", ww.Status()).
			Int64("requestDuration", time.Since(startTime).Milliseconds()).
			Msg("Request completed")
	})
}
