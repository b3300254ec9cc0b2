// Package sweeps runs the reminder sweep queries. Candidate selection joins
// loans with books and students, so it is built with goqu and scanned with
// sqlx instead of going through gorm models.
package sweeps

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/reminders"
)

const (
	dialectSQLite = "sqlite3"
	tableIssues   = "book_issues"
	tableBooks    = "books"
	tableStudents = "students"
)

type Repository struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewRepository wraps the pool shared with gorm.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      sqlx.NewDb(db, dialectSQLite),
		dialect: goqu.Dialect(dialectSQLite),
	}
}

func (r *Repository) openLoans() *goqu.SelectDataset {
	return r.dialect.
		From(goqu.T(tableIssues).As("i")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("i.book_id")))).
		Join(goqu.T(tableStudents).As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("i.student_id")))).
		Select(
			goqu.I("i.id").As("issue_id"),
			goqu.I("i.book_id").As("book_id"),
			goqu.I("i.student_id").As("student_id"),
			goqu.I("i.due_date").As("due_date"),
			goqu.I("b.title").As("title"),
			goqu.I("b.author").As("author"),
			goqu.I("s.name").As("student_name"),
			goqu.I("s.email").As("student_email"),
		).
		Where(
			goqu.I("i.status").Eq(string(entities.IssueStatusIssuing)),
			goqu.I("i.return_date").IsNull(),
		).
		Order(goqu.I("i.due_date").Asc(), goqu.I("i.id").Asc()).
		Prepared(true)
}

// DueSoon implements reminders.Store.
func (r *Repository) DueSoon(ctx context.Context, from, to calendar.Date) ([]reminders.Candidate, error) {
	query := r.openLoans().Where(
		goqu.I("i.due_date").Gte(from.String()),
		goqu.I("i.due_date").Lte(to.String()),
		goqu.I("i.reminder_sent").Eq(false),
	)
	return r.selectCandidates(ctx, query, "due-soon")
}

// Overdue implements reminders.Store.
func (r *Repository) Overdue(ctx context.Context, before calendar.Date) ([]reminders.Candidate, error) {
	query := r.openLoans().Where(
		goqu.I("i.due_date").Lt(before.String()),
		goqu.I("i.overdue_notice_sent").Eq(false),
	)
	return r.selectCandidates(ctx, query, "overdue")
}

func (r *Repository) selectCandidates(ctx context.Context, query *goqu.SelectDataset, label string) ([]reminders.Candidate, error) {
	sqlQuery, args, err := query.ToSQL()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s query", label)
	}

	var candidates []reminders.Candidate
	if err := r.db.SelectContext(ctx, &candidates, sqlQuery, args...); err != nil {
		return nil, errors.Wrapf(err, "select %s loans", label)
	}
	return candidates, nil
}

// MarkReminderSent implements reminders.Store.
func (r *Repository) MarkReminderSent(ctx context.Context, issueID uint, at time.Time) (bool, error) {
	return r.markOnce(ctx, issueID, "reminder_sent", "reminder_sent_at", at)
}

// MarkOverdueNoticeSent implements reminders.Store.
func (r *Repository) MarkOverdueNoticeSent(ctx context.Context, issueID uint, at time.Time) (bool, error) {
	return r.markOnce(ctx, issueID, "overdue_notice_sent", "overdue_notice_sent_at", at)
}

func (r *Repository) markOnce(ctx context.Context, issueID uint, flag, stamp string, at time.Time) (bool, error) {
	sqlQuery, args, err := r.dialect.
		Update(tableIssues).
		Prepared(true).
		Set(goqu.Record{flag: true, stamp: at, "updated_at": at}).
		Where(goqu.C("id").Eq(issueID), goqu.C(flag).Eq(false)).
		ToSQL()
	if err != nil {
		return false, errors.Wrapf(err, "build %s update", flag)
	}

	result, err := r.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return false, errors.Wrapf(err, "set %s on issue %d", flag, issueID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return affected == 1, nil
}

var _ reminders.Store = (*Repository)(nil)
