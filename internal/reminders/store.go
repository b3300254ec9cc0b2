package reminders

import (
	"context"
	"time"

	"github.com/mrlokans/librarydesk/internal/calendar"
)

// Candidate is an open loan eligible for a notification, joined with the
// book and borrower details the message needs.
type Candidate struct {
	IssueID      uint          `db:"issue_id"`
	BookID       uint          `db:"book_id"`
	StudentID    uint          `db:"student_id"`
	DueDate      calendar.Date `db:"due_date"`
	Title        string        `db:"title"`
	Author       string        `db:"author"`
	StudentName  string        `db:"student_name"`
	StudentEmail string        `db:"student_email"`
}

// Store finds loans to notify about and records delivery. The Mark methods
// only flip a flag that is still unset and report whether they did.
type Store interface {
	// DueSoon returns issuing loans with no reminder sent whose due date
	// falls in [from, to].
	DueSoon(ctx context.Context, from, to calendar.Date) ([]Candidate, error)
	// Overdue returns issuing loans with no overdue notice sent whose due
	// date is before the given day.
	Overdue(ctx context.Context, before calendar.Date) ([]Candidate, error)
	MarkReminderSent(ctx context.Context, issueID uint, at time.Time) (bool, error)
	MarkOverdueNoticeSent(ctx context.Context, issueID uint, at time.Time) (bool, error)
}
