package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/api/apierror"
	"github.com/ubi-economy/staking-tasks-service/internal/db"
	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

type TaskRunPublic struct {
	RunID           string                 `json:"run_id"`
	Task            string                 `json:"task"`
	Result          string                 `json:"result"`
	NextRunTime     string                 `json:"next_run_time,omitempty"`
	StartedAt       string                 `json:"started_at"`
	FinishedAt      string                 `json:"finished_at"`
	DurationMs      int64                  `json:"duration_ms"`
	ErrorCode       string                 `json:"error_code,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
	UnresolvedCount int                    `json:"unresolved_count"`
}

func fromTaskRunDocument(d *model.TaskRunDocument) TaskRunPublic {
	run := TaskRunPublic{
		RunID:           d.RunID,
		Task:            d.Task,
		Result:          d.Result,
		StartedAt:       utils.FormatIsoTimestamp(d.StartedAt),
		FinishedAt:      utils.FormatIsoTimestamp(d.FinishedAt),
		DurationMs:      d.FinishedAt.Sub(d.StartedAt).Milliseconds(),
		ErrorCode:       d.ErrorCode,
		Error:           d.Error,
		Details:         d.Details,
		UnresolvedCount: d.UnresolvedCount,
	}
	if d.NextRunTime != nil {
		run.NextRunTime = utils.FormatIsoTimestamp(*d.NextRunTime)
	}
	return run
}

// IsKnownTask reports whether name is one of the scheduled task names.
func IsKnownTask(name string) bool {
	return utils.Contains([]string{CollectionTaskName, FishingTaskName}, name)
}

// TaskRuns returns a page of recorded runs for a task, newest first.
func (s *Services) TaskRuns(
	ctx context.Context, task string, paginationKey string,
) ([]TaskRunPublic, string, *apierror.ApiError) {
	resultMap, err := s.DbClient.FindTaskRuns(ctx, task, paginationKey)
	if err != nil {
		if db.IsInvalidPaginationTokenError(err) {
			log.Ctx(ctx).Warn().Err(err).Msg("Invalid pagination token when fetching task runs")
			return nil, "", apierror.NewError(http.StatusBadRequest, apierror.InvalidPaginationToken, err)
		}
		log.Ctx(ctx).Error().Err(err).Str("task", task).Msg("Failed to find task runs")
		return nil, "", apierror.NewInternalServiceError(err)
	}

	runs := make([]TaskRunPublic, 0, len(resultMap.Data))
	for i := range resultMap.Data {
		runs = append(runs, fromTaskRunDocument(&resultMap.Data[i]))
	}
	return runs, resultMap.PaginationToken, nil
}

// LatestTaskRun returns the most recent run of a task, or nil if the task
// never ran.
func (s *Services) LatestTaskRun(ctx context.Context, task string) (*TaskRunPublic, *apierror.ApiError) {
	doc, err := s.DbClient.FindLatestTaskRun(ctx, task)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, nil
		}
		log.Ctx(ctx).Error().Err(err).Str("task", task).Msg("Failed to find latest task run")
		return nil, apierror.NewInternalServiceError(err)
	}
	run := fromTaskRunDocument(doc)
	return &run, nil
}

// UnresolvedAccounts lists the accounts a run could not reclaim.
func (s *Services) UnresolvedAccounts(ctx context.Context, runID string) ([]string, *apierror.ApiError) {
	docs, err := s.DbClient.FindUnresolvedAccounts(ctx, runID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("runId", runID).Msg("Failed to find unresolved accounts")
		return nil, apierror.NewInternalServiceError(err)
	}
	accounts := make([]string, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.Address)
	}
	return accounts, nil
}
