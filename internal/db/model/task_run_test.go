package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

func TestNewTaskRunDocument(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next := started.Add(24 * time.Hour)
	run := types.NewTaskRun("run-1", "FishInactiveUsers", started, started.Add(time.Minute), types.TaskOutcome{
		Result:      types.Unresolved,
		NextRunTime: next,
		Err:         types.NewErrorWithMsg(types.ChunkFailure, "2 accounts left"),
		Details: map[string]interface{}{
			types.UnresolvedAccountsKey: []string{"0xABC", "0xdef"},
			types.FishedCountKey:        118,
		},
	})

	doc := model.NewTaskRunDocument(run)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, "unresolved", doc.Result)
	assert.Equal(t, "CHUNK_FAILURE", doc.ErrorCode)
	assert.Equal(t, "2 accounts left", doc.Error)
	require.NotNil(t, doc.NextRunTime)
	assert.Equal(t, next, *doc.NextRunTime)
	assert.Equal(t, 2, doc.UnresolvedCount)
	assert.Equal(t, 118, doc.Details[types.FishedCountKey])
	assert.NotContains(t, doc.Details, types.UnresolvedAccountsKey)

	accounts := model.NewUnresolvedAccountDocuments(run)
	require.Len(t, accounts, 2)
	first := accounts[0].(*model.UnresolvedAccountDocument)
	assert.Equal(t, "0xabc", first.Address)
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "FishInactiveUsers", first.Task)
	assert.Equal(t, started.Add(time.Minute), first.RecordedAt)
}

func TestNewTaskRunDocumentWithoutNextRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := types.NewTaskRun("run-2", "StakingModel", started, started, types.TaskOutcome{Result: types.NoOp})

	doc := model.NewTaskRunDocument(run)
	assert.Nil(t, doc.NextRunTime)
	assert.Empty(t, doc.ErrorCode)
	assert.Nil(t, doc.Details)
	assert.Empty(t, model.NewUnresolvedAccountDocuments(run))
}

func TestTaskRunPaginationTokenRoundTrip(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token, err := model.BuildTaskRunPaginationToken(model.TaskRunDocument{RunID: "run-3", StartedAt: started})
	require.NoError(t, err)

	decoded, err := model.DecodePaginationToken[model.TaskRunPagination](token)
	require.NoError(t, err)
	assert.Equal(t, "run-3", decoded.RunID)
	assert.True(t, started.Equal(decoded.StartedAt))

	_, err = model.DecodePaginationToken[model.TaskRunPagination]("not base64!")
	assert.Error(t, err)

	foreign, err := model.EncodePaginationToken(map[string]string{"staking_tx_hash_hex": "ab"})
	require.NoError(t, err)
	_, err = model.DecodePaginationToken[model.TaskRunPagination](foreign)
	assert.Error(t, err)
}
