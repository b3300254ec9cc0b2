package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarydesk/internal/reminders"
)

// SweepRunner runs one reminder or overdue sweep.
type SweepRunner interface {
	Run(ctx context.Context, kind reminders.Kind) (reminders.SweepResult, error)
}

// Config holds the two daily triggers.
type Config struct {
	Enabled          bool
	ReminderSchedule string
	OverdueSchedule  string
	Location         *time.Location
	// Timeout bounds a single sweep run.
	Timeout time.Duration
}

// ReminderScheduler fires the due-soon and overdue sweeps on their cron
// schedules in the library time zone.
type ReminderScheduler struct {
	runner SweepRunner
	config Config

	cron       *cron.Cron
	entries    map[reminders.Kind]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	lastResult map[reminders.Kind]reminders.SweepResult
	cancelFunc context.CancelFunc
}

// NewReminderScheduler creates a new scheduler instance
func NewReminderScheduler(runner SweepRunner, config Config) *ReminderScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}
	return &ReminderScheduler{
		runner:     runner,
		config:     config,
		cron:       cron.New(cron.WithParser(parser), cron.WithLocation(config.Location)),
		entries:    make(map[reminders.Kind]cron.EntryID),
		lastResult: make(map[reminders.Kind]reminders.SweepResult),
	}
}

// Start registers both sweeps and starts cron if reminders are enabled.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Reminder scheduler: disabled")
		return nil
	}

	schedules := map[reminders.Kind]string{
		reminders.KindReminder: s.config.ReminderSchedule,
		reminders.KindOverdue:  s.config.OverdueSchedule,
	}
	for kind, schedule := range schedules {
		if err := ValidateCronSchedule(schedule); err != nil {
			return fmt.Errorf("invalid %s schedule '%s': %w", kind, schedule, err)
		}
	}

	for kind, schedule := range schedules {
		kind := kind
		entryID, err := s.cron.AddFunc(schedule, func() {
			s.runSweep(kind)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s sweep: %w", kind, err)
		}
		s.entries[kind] = entryID
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for kind, schedule := range schedules {
		nextRun, _ := GetNextRunTime(schedule, time.Now(), s.config.Location)
		log.Printf("Reminder scheduler: %s sweep on '%s' (%s, %s). Next run: %v",
			kind, schedule, GetCronDescription(schedule), s.config.Location, nextRun)
	}

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops cron and waits for running sweeps to complete.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Jobs take the lock to record results, so wait without holding it.
	<-s.cron.Stop().Done()

	s.mu.Lock()
	for kind, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, kind)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	log.Printf("Reminder scheduler: stopped")
}

// RunNow triggers a sweep in the background.
func (s *ReminderScheduler) RunNow(kind reminders.Kind) error {
	if kind != reminders.KindReminder && kind != reminders.KindOverdue {
		return fmt.Errorf("unknown sweep kind: %s", kind)
	}
	go s.runSweep(kind)
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastResult returns the outcome of the latest completed sweep of kind.
func (s *ReminderScheduler) LastResult(kind reminders.Kind) (reminders.SweepResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.lastResult[kind]
	return result, ok
}

// GetNextRunTime returns when the next sweep of kind will occur
func (s *ReminderScheduler) GetNextRunTime(kind reminders.Kind) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	id, ok := s.entries[kind]
	if !ok {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == id {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ReminderScheduler) runSweep(kind reminders.Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	result, err := s.runner.Run(ctx, kind)
	if errors.Is(err, reminders.ErrSweepRunning) {
		log.Printf("Reminder scheduler: %s sweep skipped (already running)", kind)
		return
	}
	if err != nil {
		log.Printf("Reminder scheduler: %s sweep failed: %v", kind, err)
	}

	s.mu.Lock()
	s.lastResult[kind] = result
	s.mu.Unlock()
}
