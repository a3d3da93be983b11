package handlers

import (
	"net/http"

	"github.com/ubi-economy/staking-tasks-service/internal/api/apierror"
)

// HealthCheck checks the run store, the outcome queue and both chain RPCs.
func (h *Handler) HealthCheck(request *http.Request) (*Result, *apierror.ApiError) {
	err := h.services.DoHealthCheck(request.Context())
	if err != nil {
		return nil, apierror.NewInternalServiceError(err)
	}

	return NewResult("Server is up and running"), nil
}
