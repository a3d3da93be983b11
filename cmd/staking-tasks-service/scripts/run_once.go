package scripts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/services"
	"github.com/ubi-economy/staking-tasks-service/internal/tasks"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

var taskAliases = map[string]string{
	"collect": services.CollectionTaskName,
	"fish":    services.FishingTaskName,
}

// ResolveTaskName accepts either a task name or its short alias.
func ResolveTaskName(name string) (string, error) {
	if alias, ok := taskAliases[name]; ok {
		return alias, nil
	}
	if services.IsKnownTask(name) {
		return name, nil
	}
	return "", fmt.Errorf("unknown task %q, expected collect or fish", name)
}

type runOnceReport struct {
	Task        string                 `json:"task"`
	Result      string                 `json:"result"`
	NextRunTime string                 `json:"next_run_time,omitempty"`
	ErrorCode   string                 `json:"error_code,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// RunOnce executes one task outside the scheduler and prints its outcome.
func RunOnce(ctx context.Context, task *tasks.RecurringTask) error {
	log.Info().Str("task", task.Name()).Msg("Run-once flag is set. Executing task.")
	outcome := task.Execute(ctx)

	report := runOnceReport{
		Task:        task.Name(),
		Result:      outcome.Result.String(),
		NextRunTime: utils.FormatIsoTimestamp(outcome.NextRunTime),
		Details:     outcome.Details,
	}
	if outcome.Err != nil {
		report.ErrorCode = types.CodeOf(outcome.Err).String()
		report.Error = outcome.Err.Error()
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if outcome.Result == types.Failed {
		return fmt.Errorf("task %s failed: %w", task.Name(), outcome.Err)
	}
	return nil
}
