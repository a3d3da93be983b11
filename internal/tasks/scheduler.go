package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
	"github.com/ubi-economy/staking-tasks-service/internal/utils"
)

// oneShotSchedule fires once at a fixed time, then follows the task cadence.
type oneShotSchedule struct {
	at       time.Time
	fallback cron.Schedule
}

func (s oneShotSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return s.fallback.Next(t)
}

type entry struct {
	task *RecurringTask
	// lock is held for the duration of a run; overlapping fires are skipped.
	lock    sync.Mutex
	cadence cron.Schedule
	id      cron.EntryID
}

// Scheduler owns the timers of all recurring tasks. Tasks ask it to move
// their next fire through Reprogram.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	entries  map[string]*entry
	minDelay time.Duration
	clock    utils.Clock
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(minRescheduleDelay time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithParser(config.ScheduleParser)),
		entries:  make(map[string]*entry),
		minDelay: minRescheduleDelay,
		clock:    utils.SystemClock,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds a task on its default cadence and lets it reprogram itself.
func (s *Scheduler) Register(task *RecurringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := task.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("scheduler: duplicate task name %q", name)
	}
	cadence, err := config.ScheduleParser.Parse(task.Schedule())
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule for task %q: %w", name, err)
	}

	e := &entry{task: task, cadence: cadence}
	e.id = s.cron.Schedule(cadence, s.job(e))
	s.entries[name] = e
	task.setReprogrammer(s)
	return nil
}

func (s *Scheduler) job(e *entry) cron.Job {
	return cron.FuncJob(func() {
		if !e.lock.TryLock() {
			log.Warn().Str("task", e.task.Name()).Msg("task still running, skipping tick")
			return
		}
		defer e.lock.Unlock()
		e.task.Execute(s.ctx)
	})
}

// Reprogram replaces the next fire of a task. Times sooner than the minimum
// reschedule delay are pushed back to it.
func (s *Scheduler) Reprogram(name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("scheduler: unknown task %q", name)
	}
	at = utils.NotBefore(at, s.clock.Now().Add(s.minDelay))

	s.cron.Remove(e.id)
	e.id = s.cron.Schedule(oneShotSchedule{at: at, fallback: e.cadence}, s.job(e))
	log.Info().Str("task", name).Time("nextRunTime", at).Msg("task reprogrammed")
	return nil
}

// NextRun returns the next fire time of a task. It is only known once the
// scheduler has started.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(e.id).Next
	return next, !next.IsZero()
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("tasks", len(s.entries)).Msg("scheduler started")
}

// Stop cancels running tasks and waits for them to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
