package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/notify"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) LogSweep(kind, runID string, scanned, sent, failed int, err error) {
	m.Called(kind, runID, scanned, sent, failed, err)
}

type loan struct {
	Candidate
	reminderSent bool
	overdueSent  bool
}

// memoryStore filters loans the same way the SQL store does.
type memoryStore struct {
	mu      sync.Mutex
	loans   []*loan
	findErr error
	markErr error
}

func (s *memoryStore) DueSoon(_ context.Context, from, to calendar.Date) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []Candidate
	for _, l := range s.loans {
		if !l.reminderSent && !l.DueDate.Before(from) && !l.DueDate.After(to) {
			out = append(out, l.Candidate)
		}
	}
	return out, nil
}

func (s *memoryStore) Overdue(_ context.Context, before calendar.Date) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []Candidate
	for _, l := range s.loans {
		if !l.overdueSent && l.DueDate.Before(before) {
			out = append(out, l.Candidate)
		}
	}
	return out, nil
}

func (s *memoryStore) MarkReminderSent(_ context.Context, issueID uint, _ time.Time) (bool, error) {
	return s.mark(issueID, func(l *loan) *bool { return &l.reminderSent })
}

func (s *memoryStore) MarkOverdueNoticeSent(_ context.Context, issueID uint, _ time.Time) (bool, error) {
	return s.mark(issueID, func(l *loan) *bool { return &l.overdueSent })
}

func (s *memoryStore) mark(issueID uint, flag func(*loan) *bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return false, s.markErr
	}
	for _, l := range s.loans {
		if l.IssueID == issueID {
			f := flag(l)
			if *f {
				return false, nil
			}
			*f = true
			return true, nil
		}
	}
	return false, nil
}

func newLoan(id uint, due string, email string) *loan {
	return &loan{Candidate: Candidate{
		IssueID:      id,
		BookID:       id,
		StudentID:    id,
		DueDate:      calendar.MustParse(due),
		Title:        "Book",
		Author:       "Author",
		StudentName:  "Reader",
		StudentEmail: email,
	}}
}

var sweepNow = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

func newTestSweeper(store Store, sender notify.Sender) *Sweeper {
	return NewSweeper(store, sender, Config{Now: func() time.Time { return sweepNow }})
}

func TestRunReminderSweep_WindowAndOnce(t *testing.T) {
	store := &memoryStore{loans: []*loan{
		newLoan(1, "2025-05-10", "a@example.edu"),
		newLoan(2, "2025-05-13", "b@example.edu"),
		newLoan(3, "2025-05-14", "c@example.edu"),
		newLoan(4, "2025-05-09", "d@example.edu"),
	}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.To == "a@example.edu" || m.To == "b@example.edu"
	})).Return(nil).Twice()

	sweeper := newTestSweeper(store, sender)

	first, err := sweeper.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Scanned)
	assert.Equal(t, 2, first.Sent)
	assert.Zero(t, first.Failed)
	assert.Equal(t, "2025-05-10", first.Day)
	assert.NotEmpty(t, first.RunID)

	second, err := sweeper.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Scanned)
	assert.Zero(t, second.Sent)
	assert.NotEqual(t, first.RunID, second.RunID)

	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

// racingStore flags every loan between the candidate query and the mark,
// as a concurrent run in another process would.
type racingStore struct {
	*memoryStore
}

func (s racingStore) MarkReminderSent(ctx context.Context, issueID uint, at time.Time) (bool, error) {
	if _, err := s.memoryStore.MarkReminderSent(ctx, issueID, at); err != nil {
		return false, err
	}
	return s.memoryStore.MarkReminderSent(ctx, issueID, at)
}

func TestRunReminderSweep_CountsDuplicatesSeparately(t *testing.T) {
	store := racingStore{&memoryStore{loans: []*loan{newLoan(1, "2025-05-11", "a@example.edu")}}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := newTestSweeper(store, sender).RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Zero(t, result.Sent)
	assert.Equal(t, 1, result.Duplicates)
	assert.Zero(t, result.Failed)
	assert.True(t, store.loans[0].reminderSent)
	sender.AssertExpectations(t)
}

func TestRunReminderSweep_FailedSendLeavesFlagUnset(t *testing.T) {
	store := &memoryStore{loans: []*loan{
		newLoan(1, "2025-05-11", "fail@example.edu"),
		newLoan(2, "2025-05-12", "ok@example.edu"),
	}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool { return m.To == "fail@example.edu" })).
		Return(errors.New("smtp timeout"))
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool { return m.To == "ok@example.edu" })).
		Return(nil)

	auditor := &mockAuditor{}
	auditor.On("LogSweep", "reminder", mock.Anything, 2, 1, 1, nil).Once()

	sweeper := newTestSweeper(store, sender)
	sweeper.SetAuditor(auditor)

	result, err := sweeper.RunReminderSweep(context.Background())
	require.NoError(t, err, "per-record failures do not fail the sweep")
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)

	assert.False(t, store.loans[0].reminderSent)
	assert.True(t, store.loans[1].reminderSent)
	auditor.AssertExpectations(t)
}

func TestRunReminderSweep_MessageContent(t *testing.T) {
	store := &memoryStore{loans: []*loan{newLoan(1, "2025-05-12", "a@example.edu")}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return assert.Contains(t, m.HTML, "in 2 days") && assert.Contains(t, m.Subject, "2025-05-12")
	})).Return(nil).Once()

	_, err := newTestSweeper(store, sender).RunReminderSweep(context.Background())
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestRunOverdueSweep(t *testing.T) {
	store := &memoryStore{loans: []*loan{
		newLoan(1, "2025-05-07", "late@example.edu"),
		newLoan(2, "2025-05-10", "today@example.edu"),
	}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.To == "late@example.edu" && assert.Contains(t, m.HTML, "3 days overdue")
	})).Return(nil).Once()

	sweeper := newTestSweeper(store, sender)
	result, err := sweeper.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.True(t, store.loans[0].overdueSent)
	assert.False(t, store.loans[0].reminderSent, "overdue sweep leaves the reminder flag alone")

	again, err := sweeper.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Sent)
	sender.AssertExpectations(t)
}

func TestSweep_StoreErrors(t *testing.T) {
	t.Run("find failure is returned and audited", func(t *testing.T) {
		boom := errors.New("database is locked")
		store := &memoryStore{findErr: boom}
		auditor := &mockAuditor{}
		auditor.On("LogSweep", "overdue", mock.Anything, 0, 0, 0, boom).Once()

		sweeper := newTestSweeper(store, &mockSender{})
		sweeper.SetAuditor(auditor)

		_, err := sweeper.RunOverdueSweep(context.Background())
		assert.ErrorIs(t, err, boom)
		auditor.AssertExpectations(t)
	})

	t.Run("mark failure counts as failed", func(t *testing.T) {
		store := &memoryStore{
			loans:   []*loan{newLoan(1, "2025-05-11", "a@example.edu")},
			markErr: errors.New("disk I/O error"),
		}
		sender := &mockSender{}
		sender.On("Send", mock.Anything, mock.Anything).Return(nil)

		result, err := newTestSweeper(store, sender).RunReminderSweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("missing recipient is skipped", func(t *testing.T) {
		store := &memoryStore{loans: []*loan{newLoan(1, "2025-05-11", "")}}
		sender := &mockSender{}

		result, err := newTestSweeper(store, sender).RunReminderSweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

type blockingSender struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSender) Send(ctx context.Context, _ notify.Message) error {
	close(b.started)
	<-b.release
	return nil
}

func TestSweep_SkipsWhenAlreadyRunning(t *testing.T) {
	store := &memoryStore{loans: []*loan{newLoan(1, "2025-05-11", "a@example.edu")}}
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	sweeper := newTestSweeper(store, sender)

	done := make(chan error, 1)
	go func() {
		_, err := sweeper.RunReminderSweep(context.Background())
		done <- err
	}()

	<-sender.started
	assert.True(t, sweeper.IsRunning(KindReminder))
	_, err := sweeper.RunReminderSweep(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(sender.release)
	require.NoError(t, <-done)
	assert.False(t, sweeper.IsRunning(KindReminder))
}

func TestSweep_CancelledContext(t *testing.T) {
	store := &memoryStore{loans: []*loan{newLoan(1, "2025-05-11", "a@example.edu")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSweeper(store, &mockSender{}).RunReminderSweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.loans[0].reminderSent)
}

func TestRun_UnknownKind(t *testing.T) {
	_, err := newTestSweeper(&memoryStore{}, &mockSender{}).Run(context.Background(), Kind("weekly"))
	assert.Error(t, err)
}

func TestSweep_UsesLibraryTimeZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on May 10 is already May 11 in Tokyo.
	store := &memoryStore{loans: []*loan{newLoan(1, "2025-05-14", "a@example.edu")}}
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	sweeper := NewSweeper(store, sender, Config{
		Location: tokyo,
		Now:      func() time.Time { return time.Date(2025, 5, 10, 20, 0, 0, 0, time.UTC) },
	})
	result, err := sweeper.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-05-11", result.Day)
	assert.Equal(t, 1, result.Sent)
}
