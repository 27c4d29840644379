// Package scheduler runs the recurring sync triggers: the smart
// incremental sync several times a day and the weekly validation sync.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/application/ordersync"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
)

// tickInterval is how often the scheduler checks for due tasks.
const tickInterval = 1 * time.Minute

// Outcome labels for the last firing of a task.
const (
	OutcomeTriggered = "triggered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// SyncTrigger starts sync runs. Satisfied by the sync orchestrator.
type SyncTrigger interface {
	Start(ctx context.Context, typ syncdomain.RunType, opts ordersync.StartOptions) (*syncdomain.Run, error)
}

// Config holds the sync scheduler configuration.
type Config struct {
	// Enabled turns the scheduler on
	Enabled bool

	// SmartSyncHours are the hours of day a smart sync fires
	SmartSyncHours []int

	// WeeklyDay and WeeklyHour place the weekly validation sync
	WeeklyDay  time.Weekday
	WeeklyHour int
}

// Validate checks the configuration ranges.
func (c *Config) Validate() error {
	if len(c.SmartSyncHours) == 0 {
		return ErrInvalidConfig
	}
	for _, h := range c.SmartSyncHours {
		if h < 0 || h > 23 {
			return ErrInvalidConfig
		}
	}
	if c.WeeklyDay < time.Sunday || c.WeeklyDay > time.Saturday {
		return ErrInvalidConfig
	}
	if c.WeeklyHour < 0 || c.WeeklyHour > 23 {
		return ErrInvalidConfig
	}
	return nil
}

// task is one recurring trigger with its own schedule state.
type task struct {
	name    string
	runType syncdomain.RunType
	next    func(after time.Time) time.Time

	nextRunAt   time.Time
	lastRunAt   *time.Time
	lastOutcome string
}

// TaskStatus reports the schedule state of one task.
type TaskStatus struct {
	Name        string     `json:"name"`
	RunType     string     `json:"run_type"`
	NextRunAt   time.Time  `json:"next_run_at"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastOutcome string     `json:"last_outcome,omitempty"`
}

// Status reports the scheduler state.
type Status struct {
	Enabled    bool         `json:"enabled"`
	Running    bool         `json:"running"`
	ServerTime time.Time    `json:"server_time"`
	Tasks      []TaskStatus `json:"tasks"`
}

// SyncScheduler fires sync runs on a fixed schedule. A firing that
// collides with an in-flight run is skipped; the next slot picks the
// window up again.
type SyncScheduler struct {
	cfg     Config
	trigger SyncTrigger
	logger  *zap.Logger
	loc     *time.Location

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	tasks     []*task

	now func() time.Time
}

// NewSyncScheduler creates the scheduler with its two tasks.
func NewSyncScheduler(cfg Config, trigger SyncTrigger, loc *time.Location, logger *zap.Logger) (*SyncScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	hours := append([]int(nil), cfg.SmartSyncHours...)
	sort.Ints(hours)

	s := &SyncScheduler{
		cfg:     cfg,
		trigger: trigger,
		logger:  logger.Named("scheduler"),
		loc:     loc,
	}
	s.now = func() time.Time { return time.Now().In(loc) }

	s.tasks = []*task{
		{
			name:    "smart_sync",
			runType: syncdomain.RunTypeSmartIncremental,
			next:    func(after time.Time) time.Time { return nextDailyHour(after, hours) },
		},
		{
			name:    "weekly_validation",
			runType: syncdomain.RunTypeWeeklyValidation,
			next: func(after time.Time) time.Time {
				return nextWeekday(after, cfg.WeeklyDay, cfg.WeeklyHour)
			},
		},
	}
	return s, nil
}

// Start begins the schedule loop. A disabled scheduler starts as a
// no-op so callers need not special-case it.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("Sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	now := s.now()
	for _, t := range s.tasks {
		t.nextRunAt = t.next(now)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Ints("smart_sync_hours", s.cfg.SmartSyncHours),
		zap.String("weekly_day", s.cfg.WeeklyDay.String()),
		zap.Int("weekly_hour", s.cfg.WeeklyHour),
	)
	return nil
}

// Stop stops the schedule loop and waits for it to exit.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Status reports the schedule state of all tasks.
func (s *SyncScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]TaskStatus, len(s.tasks))
	for i, t := range s.tasks {
		tasks[i] = TaskStatus{
			Name:        t.name,
			RunType:     string(t.runType),
			NextRunAt:   t.nextRunAt,
			LastRunAt:   t.lastRunAt,
			LastOutcome: t.lastOutcome,
		}
	}
	return Status{Enabled: s.cfg.Enabled, Running: s.isRunning, ServerTime: s.now(), Tasks: tasks}
}

func (s *SyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// fireDue triggers every task whose scheduled time has passed and
// advances its schedule.
func (s *SyncScheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*task
	for _, t := range s.tasks {
		if !now.Before(t.nextRunAt) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		outcome := s.fire(ctx, t)

		s.mu.Lock()
		fired := now
		t.lastRunAt = &fired
		t.lastOutcome = outcome
		t.nextRunAt = t.next(now)
		s.mu.Unlock()
	}
}

func (s *SyncScheduler) fire(ctx context.Context, t *task) string {
	run, err := s.trigger.Start(ctx, t.runType, ordersync.StartOptions{})
	switch {
	case errors.Is(err, syncdomain.ErrAlreadyRunning):
		s.logger.Info("Scheduled sync skipped, another run in flight",
			zap.String("task", t.name),
		)
		return OutcomeSkipped
	case err != nil:
		s.logger.Error("Scheduled sync failed to start",
			zap.String("task", t.name),
			zap.Error(err),
		)
		return OutcomeFailed
	default:
		s.logger.Info("Scheduled sync triggered",
			zap.String("task", t.name),
			zap.String("run_id", run.ID.String()),
			zap.String("window", run.Window.String()),
		)
		return OutcomeTriggered
	}
}

// nextDailyHour returns the first listed hour strictly after the given
// time, rolling to the next day when none remains. hours must be
// sorted.
func nextDailyHour(after time.Time, hours []int) time.Time {
	for _, h := range hours {
		slot := time.Date(after.Year(), after.Month(), after.Day(), h, 0, 0, 0, after.Location())
		if slot.After(after) {
			return slot
		}
	}
	tomorrow := after.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hours[0], 0, 0, 0, after.Location())
}

// nextWeekday returns the next occurrence of the weekday at the given
// hour, strictly after the given time.
func nextWeekday(after time.Time, day time.Weekday, hour int) time.Time {
	slot := time.Date(after.Year(), after.Month(), after.Day(), hour, 0, 0, 0, after.Location())
	daysAhead := (int(day) - int(after.Weekday()) + 7) % 7
	slot = slot.AddDate(0, 0, daysAhead)
	if !slot.After(after) {
		slot = slot.AddDate(0, 0, 7)
	}
	return slot
}
