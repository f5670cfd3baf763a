// Package scheduler runs the periodic library maintenance jobs. Jobs only
// enqueue tasks; the work itself happens on the task queue workers.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/tasks"
)

const enqueueTimeout = 30 * time.Second

// Enqueuer adds a task to the queue. Implemented by *tasks.Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

type job struct {
	taskType string
	schedule string
	entryID  cron.EntryID
}

// MaintenanceScheduler enqueues due-date reminders and system log cleanup
// on their cron schedules.
type MaintenanceScheduler struct {
	enqueuer Enqueuer
	cfg      config.Maintenance

	cron       *cron.Cron
	jobs       []*job
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(enqueuer Enqueuer, cfg config.Maintenance) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		enqueuer: enqueuer,
		cfg:      cfg,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

func (s *MaintenanceScheduler) defaults() tasks.Defaults {
	return tasks.Defaults{
		ReminderDaysAhead: s.cfg.RemindersDaysAhead,
		LogRetentionDays:  s.cfg.LogRetentionDays,
	}
}

// Start validates the schedules and begins firing jobs. The scheduler stops
// when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	var planned []*job
	if s.cfg.RemindersEnabled {
		planned = append(planned, &job{taskType: tasks.TypeDueReminders, schedule: s.cfg.RemindersSchedule})
	} else {
		log.Printf("Maintenance scheduler: due reminders disabled")
	}
	if s.cfg.LogRetentionDays > 0 {
		planned = append(planned, &job{taskType: tasks.TypeCleanupSystemLogs, schedule: s.cfg.LogCleanupSchedule})
	} else {
		log.Printf("Maintenance scheduler: log retention disabled")
	}

	for _, j := range planned {
		if err := ValidateCronSchedule(j.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", j.schedule, j.taskType, err)
		}
	}
	if len(planned) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for _, j := range planned {
		taskType := j.taskType
		entryID, err := s.cron.AddFunc(j.schedule, func() {
			s.fire(runCtx, taskType)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("failed to schedule %s: %w", taskType, err)
		}
		j.entryID = entryID
		s.jobs = append(s.jobs, j)

		next, _ := NextRunTime(j.schedule, time.Now())
		log.Printf("Maintenance scheduler: %s scheduled '%s' (%s). Next run: %v",
			taskType, j.schedule, DescribeSchedule(j.schedule), next)
	}

	s.cron.Start()
	s.isRunning = true

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(runCtx.Done())

	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight jobs.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	for _, j := range s.jobs {
		s.cron.Remove(j.entryID)
	}
	s.jobs = nil
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Maintenance scheduler: stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next fire time of each scheduled task type.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.jobs))
	for _, j := range s.jobs {
		out[j.taskType] = s.cron.Entry(j.entryID).Next
	}
	return out
}

// RunNow enqueues a maintenance task immediately.
func (s *MaintenanceScheduler) RunNow(ctx context.Context, taskType string) (string, error) {
	task, err := tasks.Build(taskType, tasks.Params{}, s.defaults())
	if err != nil {
		return "", err
	}
	return s.enqueuer.Enqueue(ctx, task)
}

// fire runs on the cron goroutine and must not take s.mu: Stop holds it
// while waiting for running jobs.
func (s *MaintenanceScheduler) fire(parent context.Context, taskType string) {
	ctx, cancel := context.WithTimeout(parent, enqueueTimeout)
	defer cancel()

	id, err := s.RunNow(ctx, taskType)
	if err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue %s: %v", taskType, err)
		return
	}
	log.Printf("Maintenance scheduler: enqueued %s (%s)", taskType, id)
}
