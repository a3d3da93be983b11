package model

import (
	"strings"
	"time"

	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

const (
	TaskRunCollection           = "task_runs"
	UnresolvedAccountCollection = "unresolved_accounts"
)

type TaskRunDocument struct {
	RunID       string                 `bson:"_id"` // Primary key
	Task        string                 `bson:"task"`
	Result      string                 `bson:"result"`
	NextRunTime *time.Time             `bson:"next_run_time,omitempty"`
	StartedAt   time.Time              `bson:"started_at"`
	FinishedAt  time.Time              `bson:"finished_at"`
	ErrorCode   string                 `bson:"error_code,omitempty"`
	Error       string                 `bson:"error,omitempty"`
	Details     map[string]interface{} `bson:"details,omitempty"`
	// UnresolvedCount is the number of documents stored for this run in
	// unresolved_accounts.
	UnresolvedCount int `bson:"unresolved_count"`
}

func NewTaskRunDocument(run *types.TaskRun) *TaskRunDocument {
	doc := &TaskRunDocument{
		RunID:           run.RunID,
		Task:            run.Task,
		Result:          run.Result.String(),
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		ErrorCode:       run.ErrorCode.String(),
		Error:           run.Error,
		UnresolvedCount: len(run.Unresolved),
	}
	if !run.NextRunTime.IsZero() {
		next := run.NextRunTime
		doc.NextRunTime = &next
	}
	if len(run.Details) > 0 {
		doc.Details = make(map[string]interface{}, len(run.Details))
		for k, v := range run.Details {
			// Stored in their own collection.
			if k == types.UnresolvedAccountsKey {
				continue
			}
			doc.Details[k] = v
		}
	}
	return doc
}

type UnresolvedAccountDocument struct {
	Address    string    `bson:"address"`
	Task       string    `bson:"task"`
	RunID      string    `bson:"run_id"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func NewUnresolvedAccountDocuments(run *types.TaskRun) []interface{} {
	docs := make([]interface{}, 0, len(run.Unresolved))
	for _, address := range run.Unresolved {
		docs = append(docs, &UnresolvedAccountDocument{
			Address:    strings.ToLower(address),
			Task:       run.Task,
			RunID:      run.RunID,
			RecordedAt: run.FinishedAt,
		})
	}
	return docs
}

type TaskRunPagination struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

func BuildTaskRunPaginationToken(d TaskRunDocument) (string, error) {
	return EncodePaginationToken(TaskRunPagination{
		RunID:     d.RunID,
		StartedAt: d.StartedAt,
	})
}
