package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ubi-economy/staking-tasks-service/internal/chain/chaintest"
	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/db"
	dbmock "github.com/ubi-economy/staking-tasks-service/internal/db/mocks"
	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/services"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

type fakeScheduler struct {
	next        map[string]time.Time
	reprogramed []string
	err         error
}

func (s *fakeScheduler) Reprogram(name string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.reprogramed = append(s.reprogramed, name)
	s.next[name] = at
	return nil
}

func (s *fakeScheduler) NextRun(name string) (time.Time, bool) {
	next, ok := s.next[name]
	return next, ok
}

type healthyPublisher struct{}

func (healthyPublisher) PublishTaskRun(context.Context, *types.TaskRun) error { return nil }
func (healthyPublisher) IsConnectionHealthy() error                          { return nil }

type testServer struct {
	server    *httptest.Server
	db        *dbmock.DBClient
	scheduler *fakeScheduler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Collection: config.CollectionConfig{Enabled: true, Schedule: config.DefaultTaskSchedule},
		Fishing:    config.FishingConfig{Enabled: false, Schedule: "0 0 6 * * *"},
		Server: config.ServerConfig{
			Host:             "127.0.0.1",
			AllowedOrigins:   []string{"*"},
			MaxContentLength: 16,
		},
	}
	dbClient := dbmock.NewDBClient(t)
	gateways := services.Gateways{Main: chaintest.NewGateway(), Side: chaintest.NewGateway()}
	svc, err := services.New(context.Background(), cfg, &types.ContractAddressSet{}, gateways, dbClient, healthyPublisher{})
	require.NoError(t, err)

	scheduler := &fakeScheduler{next: map[string]time.Time{}}
	apiServer, err := New(context.Background(), cfg, svc, scheduler)
	require.NoError(t, err)

	server := httptest.NewServer(apiServer.httpServer.Handler)
	t.Cleanup(server.Close)
	return &testServer{server: server, db: dbClient, scheduler: scheduler}
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.server.URL+path, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.On("Ping", mock.Anything).Return(nil)

	resp, body := ts.do(t, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":"Server is up and running"}`, string(body))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestHealthCheckHidesInternalErrors(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.On("Ping", mock.Anything).Return(errors.New("mongo: no reachable servers"))

	resp, body := ts.do(t, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INTERNAL_SERVICE_ERROR", errResp.ErrorCode)
	assert.Equal(t, "Internal service error", errResp.Message)
}

func TestGetTaskStatus(t *testing.T) {
	ts := setupTestServer(t)
	started := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	next := started.Add(10 * time.Minute)
	ts.db.On("FindLatestTaskRun", mock.Anything, services.CollectionTaskName).Return(&model.TaskRunDocument{
		RunID:       "run-1",
		Task:        services.CollectionTaskName,
		Result:      "waiting",
		NextRunTime: &next,
		StartedAt:   started,
		FinishedAt:  started.Add(1500 * time.Millisecond),
	}, nil)
	ts.scheduler.next[services.CollectionTaskName] = next

	resp, body := ts.do(t, http.MethodGet, "/v1/tasks/StakingModel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var status struct {
		Data struct {
			Task          string `json:"task"`
			Enabled       bool   `json:"enabled"`
			Schedule      string `json:"schedule"`
			NextScheduled string `json:"next_scheduled"`
			LatestRun     struct {
				RunID       string `json:"run_id"`
				Result      string `json:"result"`
				NextRunTime string `json:"next_run_time"`
				DurationMs  int64  `json:"duration_ms"`
			} `json:"latest_run"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "StakingModel", status.Data.Task)
	assert.True(t, status.Data.Enabled)
	assert.Equal(t, config.DefaultTaskSchedule, status.Data.Schedule)
	assert.Equal(t, "2024-05-01T00:10:00Z", status.Data.NextScheduled)
	assert.Equal(t, "run-1", status.Data.LatestRun.RunID)
	assert.Equal(t, "waiting", status.Data.LatestRun.Result)
	assert.Equal(t, "2024-05-01T00:10:00Z", status.Data.LatestRun.NextRunTime)
	assert.Equal(t, int64(1500), status.Data.LatestRun.DurationMs)
}

func TestGetTaskStatusWithoutRuns(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.On("FindLatestTaskRun", mock.Anything, services.FishingTaskName).
		Return(nil, &db.NotFoundError{Key: services.FishingTaskName, Message: "not found"})

	resp, body := ts.do(t, http.MethodGet, "/v1/tasks/FishInactiveUsers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "latest_run")
	assert.NotContains(t, string(body), "next_scheduled")
}

func TestUnknownTask(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/v1/tasks/Unknown/runs", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "TASK_NOT_FOUND")
}

func TestGetTaskRuns(t *testing.T) {
	ts := setupTestServer(t)
	started := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ts.db.On("FindTaskRuns", mock.Anything, services.FishingTaskName, "").Return(&db.DbResultMap[model.TaskRunDocument]{
		Data: []model.TaskRunDocument{
			{RunID: "b", Task: services.FishingTaskName, Result: "unresolved", StartedAt: started, FinishedAt: started,
				ErrorCode: "CHUNK_FAILURE", UnresolvedCount: 2},
			{RunID: "a", Task: services.FishingTaskName, Result: "succeeded", StartedAt: started.Add(-24 * time.Hour),
				FinishedAt: started.Add(-24 * time.Hour)},
		},
		PaginationToken: "next-page",
	}, nil)

	resp, body := ts.do(t, http.MethodGet, "/v1/tasks/FishInactiveUsers/runs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var page struct {
		Data []services.TaskRunPublic `json:"data"`
		Pagination struct {
			NextKey string `json:"next_key"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, "b", page.Data[0].RunID)
	assert.Equal(t, "CHUNK_FAILURE", page.Data[0].ErrorCode)
	assert.Equal(t, 2, page.Data[0].UnresolvedCount)
	assert.Equal(t, "next-page", page.Pagination.NextKey)
}

func TestGetTaskRunsInvalidPaginationKey(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.On("FindTaskRuns", mock.Anything, services.CollectionTaskName, "garbage").
		Return(nil, &db.InvalidPaginationTokenError{Message: "Invalid pagination token"})

	resp, body := ts.do(t, http.MethodGet, "/v1/tasks/StakingModel/runs?pagination_key=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_PAGINATION_TOKEN")
}

func TestGetUnresolvedAccounts(t *testing.T) {
	ts := setupTestServer(t)
	ts.db.On("FindUnresolvedAccounts", mock.Anything, "run-9").Return([]model.UnresolvedAccountDocument{
		{Address: "0xaaa", RunID: "run-9"},
		{Address: "0xbbb", RunID: "run-9"},
	}, nil)

	resp, body := ts.do(t, http.MethodGet, "/v1/runs/run-9/unresolved", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":["0xaaa","0xbbb"]}`, string(body))
}

func TestTriggerTask(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/v1/tasks/StakingModel/trigger", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{services.CollectionTaskName}, ts.scheduler.reprogramed)
}

func TestTriggerDisabledTask(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/v1/tasks/FishInactiveUsers/trigger", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "TASK_DISABLED")
	assert.Empty(t, ts.scheduler.reprogramed)
}

func TestTriggerRejectsLargeBody(t *testing.T) {
	ts := setupTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/v1/tasks/StakingModel/trigger", strings.NewReader(strings.Repeat("x", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, ts.scheduler.reprogramed)
}
