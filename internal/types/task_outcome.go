package types

import "time"

type TaskResult string

const (
	Succeeded TaskResult = "succeeded"
	Waiting   TaskResult = "waiting"
	NoOp      TaskResult = "noOp"
	Failed    TaskResult = "failed"
	// Unresolved marks a reclamation run that stopped with accounts still unfished.
	Unresolved TaskResult = "unresolved"
)

func (r TaskResult) String() string {
	return string(r)
}

// TaskOutcome is produced exactly once per engine invocation. A zero
// NextRunTime means the engine has no opinion on the next run.
type TaskOutcome struct {
	Result      TaskResult
	NextRunTime time.Time
	Err         error
	Details     map[string]interface{}
}

func (o TaskOutcome) HasNextRun() bool {
	return !o.NextRunTime.IsZero()
}

// TaskRun is the recorded form of an outcome, shared by the run store and the
// outcome publisher.
type TaskRun struct {
	RunID       string
	Task        string
	Result      TaskResult
	NextRunTime time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	ErrorCode   ErrorCode
	Error       string
	Details     map[string]interface{}
	Unresolved  []string
}

func NewTaskRun(runID, task string, startedAt, finishedAt time.Time, outcome TaskOutcome) *TaskRun {
	run := &TaskRun{
		RunID:       runID,
		Task:        task,
		Result:      outcome.Result,
		NextRunTime: outcome.NextRunTime,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Details:     outcome.Details,
	}
	if outcome.Err != nil {
		run.ErrorCode = CodeOf(outcome.Err)
		run.Error = outcome.Err.Error()
	}
	if unresolved, ok := outcome.Details[UnresolvedAccountsKey].([]string); ok {
		run.Unresolved = unresolved
	}
	return run
}

// Keys of TaskOutcome.Details shared between engines and recorders.
const (
	UnresolvedAccountsKey = "unresolved_accounts"
	FishersKey            = "fishers"
	FishedCountKey        = "fished"
	TransferredUBIKey     = "transferred_ubi"
	AvailableInterestKey  = "available_interest"
	SkipReasonKey         = "skip_reason"
)
