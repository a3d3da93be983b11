package scripts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubi-economy/staking-tasks-service/internal/tasks"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

type outcomeEngine types.TaskOutcome

func (e outcomeEngine) Run(context.Context) types.TaskOutcome {
	return types.TaskOutcome(e)
}

func TestResolveTaskName(t *testing.T) {
	name, err := ResolveTaskName("collect")
	require.NoError(t, err)
	assert.Equal(t, "StakingModel", name)

	name, err = ResolveTaskName("FishInactiveUsers")
	require.NoError(t, err)
	assert.Equal(t, "FishInactiveUsers", name)

	_, err = ResolveTaskName("mint")
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	ok := tasks.NewRecurringTask("StakingModel", "0 0 0 * * *", outcomeEngine{Result: types.NoOp})
	require.NoError(t, RunOnce(context.Background(), ok))

	failing := tasks.NewRecurringTask("StakingModel", "0 0 0 * * *", outcomeEngine{
		Result: types.Failed,
		Err:    types.NewErrorWithMsg(types.BridgeTimeout, "bridge"),
	})
	err := RunOnce(context.Background(), failing)
	require.Error(t, err)
	assert.Equal(t, types.BridgeTimeout, types.CodeOf(err))
}
