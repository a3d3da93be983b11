package client

import "time"

const TaskOutcomeQueueName string = "task_outcomes_queue"

const TaskOutcomeEventType EventType = 1

type EventType int

type TaskOutcomeEvent struct {
	EventType          EventType              `json:"event_type"` // always 1
	RunID              string                 `json:"run_id"`
	Task               string                 `json:"task"`
	Result             string                 `json:"result"`
	NextRunTime        *time.Time             `json:"next_run_time,omitempty"`
	StartedAt          time.Time              `json:"started_at"`
	FinishedAt         time.Time              `json:"finished_at"`
	ErrorCode          string                 `json:"error_code,omitempty"`
	Error              string                 `json:"error,omitempty"`
	Details            map[string]interface{} `json:"details,omitempty"`
	UnresolvedAccounts []string               `json:"unresolved_accounts,omitempty"`
}
