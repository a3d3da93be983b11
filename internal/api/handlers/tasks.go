package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/ubi-economy/staking-tasks-service/internal/api/apierror"
	"github.com/ubi-economy/staking-tasks-service/internal/services"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

type TaskStatusPublic struct {
	Task          string                  `json:"task"`
	Enabled       bool                    `json:"enabled"`
	Schedule      string                  `json:"schedule"`
	NextScheduled string                  `json:"next_scheduled,omitempty"`
	LatestRun     *services.TaskRunPublic `json:"latest_run,omitempty"`
}

func (h *Handler) taskName(request *http.Request) (string, *apierror.ApiError) {
	name := chi.URLParam(request, "name")
	if !services.IsKnownTask(name) {
		return "", apierror.NewErrorWithMsg(http.StatusNotFound, apierror.TaskNotFound, "unknown task: "+name)
	}
	return name, nil
}

func (h *Handler) taskSchedule(name string) (enabled bool, schedule string) {
	if name == services.CollectionTaskName {
		return h.config.Collection.Enabled, h.config.Collection.Schedule
	}
	return h.config.Fishing.Enabled, h.config.Fishing.Schedule
}

// GetTaskStatus returns the schedule of a task together with its latest run.
func (h *Handler) GetTaskStatus(request *http.Request) (*Result, *apierror.ApiError) {
	name, apiErr := h.taskName(request)
	if apiErr != nil {
		return nil, apiErr
	}

	latest, apiErr := h.services.LatestTaskRun(request.Context(), name)
	if apiErr != nil {
		return nil, apiErr
	}

	enabled, schedule := h.taskSchedule(name)
	status := TaskStatusPublic{
		Task:      name,
		Enabled:   enabled,
		Schedule:  schedule,
		LatestRun: latest,
	}
	if next, ok := h.scheduler.NextRun(name); ok {
		status.NextScheduled = utils.FormatIsoTimestamp(next)
	}
	return NewResult(status), nil
}

// GetTaskRuns returns recorded runs of a task, newest first.
func (h *Handler) GetTaskRuns(request *http.Request) (*Result, *apierror.ApiError) {
	name, apiErr := h.taskName(request)
	if apiErr != nil {
		return nil, apiErr
	}
	paginationKey := request.URL.Query().Get("pagination_key")

	runs, nextKey, apiErr := h.services.TaskRuns(request.Context(), name, paginationKey)
	if apiErr != nil {
		return nil, apiErr
	}
	return NewResultWithPagination(runs, nextKey), nil
}

// GetUnresolvedAccounts lists the accounts a reclamation run left unfished.
func (h *Handler) GetUnresolvedAccounts(request *http.Request) (*Result, *apierror.ApiError) {
	runID := chi.URLParam(request, "id")
	if runID == "" {
		return nil, apierror.NewErrorWithMsg(http.StatusBadRequest, apierror.BadRequest, "run id is required")
	}
	accounts, apiErr := h.services.UnresolvedAccounts(request.Context(), runID)
	if apiErr != nil {
		return nil, apiErr
	}
	return NewResult(accounts), nil
}

// TriggerTask brings the next run of a task forward to the earliest time the
// scheduler allows.
func (h *Handler) TriggerTask(request *http.Request) (*Result, *apierror.ApiError) {
	name, apiErr := h.taskName(request)
	if apiErr != nil {
		return nil, apiErr
	}
	if enabled, _ := h.taskSchedule(name); !enabled {
		return nil, apierror.NewErrorWithMsg(http.StatusBadRequest, apierror.TaskDisabled, "task is disabled: "+name)
	}
	if err := h.scheduler.Reprogram(name, time.Now()); err != nil {
		return nil, apierror.NewInternalServiceError(err)
	}

	next, _ := h.scheduler.NextRun(name)
	return &Result{
		Data:   &PublicResponse[string]{Data: utils.FormatIsoTimestamp(next)},
		Status: http.StatusAccepted,
	}, nil
}
