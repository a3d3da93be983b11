package api

import (
	"github.com/go-chi/chi"
)

func (a *Server) SetupRoutes(r *chi.Mux) {
	handlers := a.handlers
	r.Get("/healthcheck", registerHandler(handlers.HealthCheck))

	r.Get("/v1/tasks/{name}", registerHandler(handlers.GetTaskStatus))
	r.Get("/v1/tasks/{name}/runs", registerHandler(handlers.GetTaskRuns))
	r.Post("/v1/tasks/{name}/trigger", registerHandler(handlers.TriggerTask))
	r.Get("/v1/runs/{id}/unresolved", registerHandler(handlers.GetUnresolvedAccounts))
}
