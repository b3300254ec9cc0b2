// Package reminders runs the two notification sweeps over open loans: the
// due-soon reminder and the overdue notice. Each loan gets at most one of
// each; delivery is recorded only after the sender accepted the message.
package reminders

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/fines"
	"github.com/mrlokans/librarydesk/internal/notify"
)

// Kind names a sweep.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindOverdue  Kind = "overdue"
)

// DefaultWindowDays is how far ahead the due-soon sweep looks.
const DefaultWindowDays = 3

// ErrSweepRunning is returned when a sweep of the same kind is in progress.
var ErrSweepRunning = errors.New("sweep already running")

// SweepResult summarises one sweep run.
type SweepResult struct {
	RunID      string    `json:"run_id"`
	Kind       Kind      `json:"kind"`
	Day        string    `json:"day"`
	Scanned    int       `json:"scanned"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	// Duplicates were sent here but another run had already recorded them.
	Duplicates int       `json:"duplicates"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Auditor records finished sweeps.
type Auditor interface {
	LogSweep(kind, runID string, scanned, sent, failed int, err error)
}

// Config tunes the sweeps.
type Config struct {
	// WindowDays is N in "due within [today, today+N]".
	WindowDays  int
	Location    *time.Location
	RatePerHour decimal.Decimal
	Now         func() time.Time
}

type Sweeper struct {
	store   Store
	sender  notify.Sender
	cfg     Config
	auditor Auditor

	mu      sync.Mutex
	running map[Kind]bool
}

func NewSweeper(store Store, sender notify.Sender, cfg Config) *Sweeper {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if !cfg.RatePerHour.IsPositive() {
		cfg.RatePerHour = fines.DefaultRatePerHour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{
		store:   store,
		sender:  sender,
		cfg:     cfg,
		running: make(map[Kind]bool),
	}
}

func (s *Sweeper) SetAuditor(auditor Auditor) {
	s.auditor = auditor
}

// IsRunning reports whether a sweep of kind is in progress.
func (s *Sweeper) IsRunning(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[kind]
}

// RunReminderSweep notifies borrowers of loans due within the window.
func (s *Sweeper) RunReminderSweep(ctx context.Context) (SweepResult, error) {
	return s.run(ctx, KindReminder,
		func(today calendar.Date) ([]Candidate, error) {
			return s.store.DueSoon(ctx, today, today.AddDays(s.cfg.WindowDays))
		},
		func(c Candidate, today calendar.Date) (notify.Message, error) {
			return notify.DueSoonMessage(c.StudentEmail, notify.DueSoonData{
				StudentName: c.StudentName,
				Title:       c.Title,
				Author:      c.Author,
				DueDate:     c.DueDate,
				DaysLeft:    c.DueDate.DaysSince(today),
				RatePerHour: s.cfg.RatePerHour.StringFixed(2),
			})
		},
		s.store.MarkReminderSent,
	)
}

// RunOverdueSweep notifies borrowers of loans past their due date.
func (s *Sweeper) RunOverdueSweep(ctx context.Context) (SweepResult, error) {
	return s.run(ctx, KindOverdue,
		func(today calendar.Date) ([]Candidate, error) {
			return s.store.Overdue(ctx, today)
		},
		func(c Candidate, today calendar.Date) (notify.Message, error) {
			return notify.OverdueMessage(c.StudentEmail, notify.OverdueData{
				StudentName: c.StudentName,
				Title:       c.Title,
				Author:      c.Author,
				DueDate:     c.DueDate,
				DaysOverdue: today.DaysSince(c.DueDate),
				RatePerHour: s.cfg.RatePerHour.StringFixed(2),
			})
		},
		s.store.MarkOverdueNoticeSent,
	)
}

// Run dispatches by kind.
func (s *Sweeper) Run(ctx context.Context, kind Kind) (SweepResult, error) {
	switch kind {
	case KindReminder:
		return s.RunReminderSweep(ctx)
	case KindOverdue:
		return s.RunOverdueSweep(ctx)
	default:
		return SweepResult{Kind: kind}, errors.New("unknown sweep kind: " + string(kind))
	}
}

type (
	findFunc  func(today calendar.Date) ([]Candidate, error)
	buildFunc func(c Candidate, today calendar.Date) (notify.Message, error)
	markFunc  func(ctx context.Context, issueID uint, at time.Time) (bool, error)
)

func (s *Sweeper) run(ctx context.Context, kind Kind, find findFunc, build buildFunc, mark markFunc) (SweepResult, error) {
	result := SweepResult{Kind: kind}
	if !s.begin(kind) {
		log.Printf("Reminder sweep: %s sweep already running, skipping", kind)
		return result, ErrSweepRunning
	}
	defer s.end(kind)

	result.RunID = uuid.NewString()
	result.StartedAt = s.cfg.Now()
	today := calendar.Today(result.StartedAt, s.cfg.Location)
	result.Day = today.String()

	candidates, err := find(today)
	if err != nil {
		log.Printf("Reminder sweep: %s run %s failed to load loans: %v", kind, result.RunID, err)
		result.FinishedAt = s.cfg.Now()
		s.audit(result, err)
		return result, err
	}
	result.Scanned = len(candidates)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			log.Printf("Reminder sweep: %s run %s interrupted: %v", kind, result.RunID, err)
			result.FinishedAt = s.cfg.Now()
			s.audit(result, err)
			return result, err
		}
		switch s.deliver(ctx, kind, c, today, build, mark) {
		case delivered:
			result.Sent++
		case duplicate:
			result.Duplicates++
		default:
			result.Failed++
		}
	}

	result.FinishedAt = s.cfg.Now()
	log.Printf("Reminder sweep: %s run %s for %s: %d scanned, %d sent, %d duplicate, %d failed",
		kind, result.RunID, result.Day, result.Scanned, result.Sent, result.Duplicates, result.Failed)
	s.audit(result, nil)
	return result, nil
}

type outcome int

const (
	failed outcome = iota
	delivered
	duplicate
)

// deliver sends one notification and records it. Failures are logged and
// reported, never propagated.
func (s *Sweeper) deliver(ctx context.Context, kind Kind, c Candidate, today calendar.Date, build buildFunc, mark markFunc) outcome {
	if c.StudentEmail == "" {
		log.Printf("Reminder sweep: issue %d has no recipient address", c.IssueID)
		return failed
	}

	msg, err := build(c, today)
	if err != nil {
		log.Printf("Reminder sweep: failed to render %s message for issue %d: %v", kind, c.IssueID, err)
		return failed
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		log.Printf("Reminder sweep: failed to send %s message for issue %d to %s: %v", kind, c.IssueID, c.StudentEmail, err)
		return failed
	}

	marked, err := mark(ctx, c.IssueID, s.cfg.Now())
	if err != nil {
		// Sent but not recorded: the next run will send it again.
		log.Printf("Reminder sweep: sent %s message for issue %d but failed to record it: %v", kind, c.IssueID, err)
		return failed
	}
	if !marked {
		log.Printf("Reminder sweep: duplicate %s message for issue %d, another run already recorded it", kind, c.IssueID)
		return duplicate
	}
	return delivered
}

func (s *Sweeper) begin(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[kind] {
		return false
	}
	s.running[kind] = true
	return true
}

func (s *Sweeper) end(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, kind)
}

func (s *Sweeper) audit(result SweepResult, err error) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogSweep(string(result.Kind), result.RunID, result.Scanned, result.Sent, result.Failed, err)
}
