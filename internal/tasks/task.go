package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/observability/metrics"
	"github.com/ubi-economy/staking-tasks-service/internal/observability/tracing"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

// Engine performs one task cycle. Run must report failures through the
// outcome rather than panicking.
type Engine interface {
	Run(ctx context.Context) types.TaskOutcome
}

// Reprogrammer moves the next fire of a named task to an absolute time.
type Reprogrammer interface {
	Reprogram(name string, at time.Time) error
}

// OutcomeRecorder receives every finished run. Recorder errors are logged
// and never change the outcome.
type OutcomeRecorder interface {
	Record(ctx context.Context, run *types.TaskRun) error
}

type RecorderFunc func(ctx context.Context, run *types.TaskRun) error

func (f RecorderFunc) Record(ctx context.Context, run *types.TaskRun) error {
	return f(ctx, run)
}

// DefaultFailureFloor is the shortest delay before a failed run is retried.
const DefaultFailureFloor = time.Hour

// RecurringTask runs an engine and applies its outcome to the schedule.
type RecurringTask struct {
	name         string
	schedule     string
	engine       Engine
	reprogrammer Reprogrammer
	recorders    []OutcomeRecorder
	failureFloor time.Duration
	clock        utils.Clock
}

func NewRecurringTask(name, schedule string, engine Engine, recorders ...OutcomeRecorder) *RecurringTask {
	return &RecurringTask{
		name:         name,
		schedule:     schedule,
		engine:       engine,
		recorders:    recorders,
		failureFloor: DefaultFailureFloor,
		clock:        utils.SystemClock,
	}
}

// WithFailureFloor sets how long a failed run waits at least before the
// next attempt.
func (t *RecurringTask) WithFailureFloor(floor time.Duration) *RecurringTask {
	if floor > 0 {
		t.failureFloor = floor
	}
	return t
}

func (t *RecurringTask) Name() string {
	return t.name
}

// Schedule is the default cadence, in force until the first outcome carrying
// a next run time.
func (t *RecurringTask) Schedule() string {
	return t.schedule
}

func (t *RecurringTask) setReprogrammer(r Reprogrammer) {
	t.reprogrammer = r
}

// Execute runs the engine once. It never panics and never returns an error.
func (t *RecurringTask) Execute(ctx context.Context) types.TaskOutcome {
	runID := uuid.NewString()
	logger := log.With().Str("task", t.name).Str("runId", runID).Logger()
	ctx = logger.WithContext(ctx)
	ctx, tracingInfo := tracing.NewContext(ctx, runID)

	startedAt := t.clock.Now()
	done := metrics.StartTaskRunTimer(t.name)
	logger.Info().Msg("task run started")

	outcome := t.applyFailureFloor(t.runEngine(ctx))

	done(outcome.Result.String())
	logEvent := logger.Info()
	if outcome.Err != nil {
		logEvent = logger.Warn().Err(outcome.Err).Str("errorCode", types.CodeOf(outcome.Err).String())
	}
	if outcome.HasNextRun() {
		logEvent = logEvent.Time("nextRunTime", outcome.NextRunTime)
	}
	logEvent.
		Str("result", outcome.Result.String()).
		Interface("tracingInfo", tracingInfo).
		Msg("task run completed")

	run := types.NewTaskRun(runID, t.name, startedAt, t.clock.Now(), outcome)
	for _, recorder := range t.recorders {
		if err := recorder.Record(ctx, run); err != nil {
			logger.Error().Err(err).Msg("failed to record task run")
		}
	}

	if outcome.HasNextRun() && t.reprogrammer != nil {
		if err := t.reprogrammer.Reprogram(t.name, outcome.NextRunTime); err != nil {
			logger.Error().Err(err).Msg("failed to reprogram task, keeping default schedule")
		}
	}
	return outcome
}

func (t *RecurringTask) runEngine(ctx context.Context) (outcome types.TaskOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().Interface("panic", r).Msg("task engine panicked")
			outcome = types.TaskOutcome{
				Result: types.Failed,
				Err:    types.NewInternalError(fmt.Errorf("engine panic: %v", r)),
			}
		}
	}()
	return t.engine.Run(ctx)
}

// applyFailureFloor keeps a failed run from firing again before now + floor,
// including when the engine reported no next run time.
func (t *RecurringTask) applyFailureFloor(outcome types.TaskOutcome) types.TaskOutcome {
	if outcome.Result != types.Failed {
		return outcome
	}
	outcome.NextRunTime = utils.NotBefore(outcome.NextRunTime, t.clock.Now().Add(t.failureFloor))
	return outcome
}
