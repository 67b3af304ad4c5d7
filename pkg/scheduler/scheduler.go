// Package scheduler runs recurring background tasks, such as the daily
// poster pre-generation, on a coarse minute-grained clock.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yumemi1/animeposter/pkg/logging"
)

// Status is a task's last observed state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusRetry   Status = "retry"
	StatusFailed  Status = "failed"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Minute
)

// TaskFunc is the work a task performs.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	fn       TaskFunc
	interval time.Duration
	nextRun  time.Time
	enabled  bool
	status   Status
	runs     int
	failures int
	retries  int
}

// TaskStats is a snapshot of one task.
type TaskStats struct {
	Name     string
	Status   Status
	Enabled  bool
	NextRun  time.Time
	Interval time.Duration
	Runs     int
	Failures int
}

// Scheduler checks for due tasks once per tick and runs them in order.
// Failed runs are retried up to maxRetries times with a short delay before
// the task falls back to its regular interval.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*task

	tick       time.Duration
	retryDelay time.Duration
	maxRetries int
	log        zerolog.Logger
}

// New returns a Scheduler ticking once per minute.
func New() *Scheduler {
	return &Scheduler{
		tasks:      make(map[string]*task),
		tick:       time.Minute,
		retryDelay: defaultRetryDelay,
		maxRetries: defaultMaxRetries,
		log:        logging.GetLogger("scheduler"),
	}
}

// Add registers a task that first runs at next and then every interval.
func (s *Scheduler) Add(name string, next time.Time, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = &task{
		name:     name,
		fn:       fn,
		interval: interval,
		nextRun:  next,
		enabled:  true,
		status:   StatusPending,
	}
}

// AddDaily registers a task running once per day at the given "HH:MM" wall
// time. The first run is today's occurrence, or tomorrow's when it already
// passed.
func (s *Scheduler) AddDaily(name, at string, fn TaskFunc) error {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("invalid daily time %q: %w", at, err)
	}
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	s.Add(name, next, 24*time.Hour, fn)
	return nil
}

// SetEnabled toggles a task without removing it.
func (s *Scheduler) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.enabled = enabled
	}
}

// Run blocks, executing due tasks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("tick", s.tick).Msg("scheduler started")
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case now := <-ticker.C:
			s.runDue(ctx, now)
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, t := range s.due(now) {
		s.runTask(ctx, t, now)
	}
}

func (s *Scheduler) due(now time.Time) []*task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*task
	for _, t := range s.tasks {
		if t.enabled && !t.nextRun.After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })
	return due
}

func (s *Scheduler) runTask(ctx context.Context, t *task, now time.Time) {
	s.setStatus(t, StatusRunning)
	err := t.fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		t.status = StatusOK
		t.runs++
		t.retries = 0
		t.nextRun = now.Add(t.interval)
		s.log.Info().Str("task", t.name).Time("next", t.nextRun).Msg("task done")
		return
	}
	t.failures++
	t.retries++
	if t.retries <= s.maxRetries {
		t.status = StatusRetry
		t.nextRun = now.Add(s.retryDelay)
		s.log.Warn().Err(err).Str("task", t.name).Int("retry", t.retries).Msg("task failed, will retry")
		return
	}
	t.status = StatusFailed
	t.retries = 0
	t.nextRun = now.Add(t.interval)
	s.log.Error().Err(err).Str("task", t.name).Msg("task failed, retries exhausted")
}

func (s *Scheduler) setStatus(t *task, st Status) {
	s.mu.Lock()
	t.status = st
	s.mu.Unlock()
}

// Stats returns a snapshot of all tasks, ordered by name.
func (s *Scheduler) Stats() []TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStats, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, TaskStats{
			Name:     t.name,
			Status:   t.status,
			Enabled:  t.enabled,
			NextRun:  t.nextRun,
			Interval: t.interval,
			Runs:     t.runs,
			Failures: t.failures,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
