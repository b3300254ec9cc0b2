// Package lending implements the borrowing lifecycle: the request queue, the
// issuance state machine (pending -> issuing -> returned, or pending ->
// rejected), the inventory ledger updates that go with it, and library cards.
//
// Every transition runs inside a single Store transaction so no partial
// mutation is ever observable.
package lending

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// Service drives the borrowing lifecycle.
type Service struct {
	store   Store
	policy  Policy
	clock   Clock
	auditor Auditor
}

// NewService creates a lending service. A nil clock means the system clock.
func NewService(store Store, policy Policy, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		store:  store,
		policy: policy.normalized(),
		clock:  clock,
	}
}

// SetAuditor attaches an audit trail for lifecycle transitions.
func (s *Service) SetAuditor(auditor Auditor) {
	s.auditor = auditor
}

// Policy returns the effective circulation policy.
func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) today() calendar.Date {
	return calendar.Today(s.clock.Now(), s.policy.Location)
}

// SubmitRequest queues a borrow request. Availability is not checked here so
// several students can queue for the same copy.
func (s *Service) SubmitRequest(ctx context.Context, bookID, studentID uint) (*entities.BorrowRequest, error) {
	const op = "submit request"
	if bookID == 0 || studentID == 0 {
		return nil, withOp(op, Validation("book_id and student_id are required"))
	}

	var req entities.BorrowRequest
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetBook(bookID); err != nil {
			return err
		}
		if _, err := tx.GetStudent(studentID); err != nil {
			return err
		}
		active, err := tx.FindActiveIssue(studentID, bookID)
		if err != nil {
			return err
		}
		if active != nil {
			return DuplicateLoan(studentID, bookID)
		}

		req = entities.BorrowRequest{
			BookID:      bookID,
			StudentID:   studentID,
			RequestDate: s.today(),
			Status:      entities.RequestStatusPending,
		}
		return tx.CreateRequest(&req)
	})
	if err != nil {
		return nil, withOp(op, err)
	}

	s.audit(entities.AuditEventRequest, "request_submit", "borrow_request", req.ID,
		fmt.Sprintf("Student %d requested book %d", studentID, bookID), nil)
	return &req, nil
}

// ListRequests returns requests in the given status, or all when status is empty.
func (s *Service) ListRequests(ctx context.Context, status entities.RequestStatus) ([]entities.BorrowRequest, error) {
	switch status {
	case "", entities.RequestStatusPending, entities.RequestStatusApproved, entities.RequestStatusRejected:
	default:
		return nil, withOp("list requests", Validation("unknown request status %q", status))
	}

	var requests []entities.BorrowRequest
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		requests, err = tx.ListRequests(status)
		return err
	})
	if err != nil {
		return nil, withOp("list requests", err)
	}
	return requests, nil
}

// Approve issues the requested book: one copy leaves the shelf, a loan is
// opened and the request becomes approved, all in one transaction.
func (s *Service) Approve(ctx context.Context, requestID uint) (*entities.BookIssue, error) {
	const op = "approve request"

	var issue entities.BookIssue
	err := s.store.InTx(ctx, func(tx Tx) error {
		req, book, err := s.loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if book.AvailableQuantity <= 0 {
			return OutOfStock(book.ID)
		}
		active, err := tx.FindActiveIssue(req.StudentID, req.BookID)
		if err != nil {
			return err
		}
		if active != nil {
			return DuplicateLoan(req.StudentID, req.BookID)
		}

		if err := checkOut(tx, book); err != nil {
			return err
		}

		issueDate := s.today()
		requestRef := req.ID
		issue = entities.BookIssue{
			BookID:    req.BookID,
			StudentID: req.StudentID,
			RequestID: &requestRef,
			IssueDate: issueDate,
			DueDate:   s.policy.DueDate(issueDate),
			Status:    entities.IssueStatusIssuing,
		}
		if err := tx.CreateIssue(&issue); err != nil {
			return err
		}
		return tx.UpdateRequestStatus(req.ID, entities.RequestStatusApproved)
	})
	if err != nil {
		s.audit(entities.AuditEventRequest, "request_approve", "borrow_request", requestID, "Approval failed", err)
		return nil, withOp(op, err)
	}

	s.audit(entities.AuditEventRequest, "request_approve", "borrow_request", requestID,
		fmt.Sprintf("Issued book %d to student %d, due %s", issue.BookID, issue.StudentID, issue.DueDate), nil)
	return &issue, nil
}

// Reject closes a pending request without touching inventory.
func (s *Service) Reject(ctx context.Context, requestID uint) (*entities.BorrowRequest, error) {
	const op = "reject request"

	var rejected entities.BorrowRequest
	err := s.store.InTx(ctx, func(tx Tx) error {
		req, _, err := s.loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if err := tx.UpdateRequestStatus(req.ID, entities.RequestStatusRejected); err != nil {
			return err
		}
		rejected = *req
		rejected.Status = entities.RequestStatusRejected
		return nil
	})
	if err != nil {
		return nil, withOp(op, err)
	}

	s.audit(entities.AuditEventRequest, "request_reject", "borrow_request", requestID,
		fmt.Sprintf("Rejected request of student %d for book %d", rejected.StudentID, rejected.BookID), nil)
	return &rejected, nil
}

// loadRequest fetches a pending request and checks that its student and book
// still exist.
func (s *Service) loadRequest(tx Tx, requestID uint) (*entities.BorrowRequest, *entities.Book, error) {
	req, err := tx.GetRequest(requestID)
	if err != nil {
		return nil, nil, err
	}
	if !req.IsPending() {
		return nil, nil, InvalidState("request %d is already %s", req.ID, req.Status)
	}
	if _, err := tx.GetStudent(req.StudentID); err != nil {
		return nil, nil, err
	}
	book, err := tx.GetBook(req.BookID)
	if err != nil {
		return nil, nil, err
	}
	return req, book, nil
}

// Return closes an active loan, computing the fine for late returns, and puts
// the copy back on the shelf.
func (s *Service) Return(ctx context.Context, issueID uint) (*entities.BookIssue, error) {
	const op = "return loan"

	var closed entities.BookIssue
	err := s.store.InTx(ctx, func(tx Tx) error {
		issue, err := tx.GetIssue(issueID)
		if err != nil {
			return err
		}
		if _, err := tx.GetStudent(issue.StudentID); err != nil {
			return err
		}
		book, err := tx.GetBook(issue.BookID)
		if err != nil {
			return err
		}
		if !issue.IsActive() {
			return NotBorrowed(issue.StudentID, issue.BookID)
		}

		now := s.clock.Now()
		returnDate := calendar.Today(now, s.policy.Location)
		fine := s.policy.Fines.Fine(s.policy.DueInstant(issue.DueDate), now)

		if err := checkIn(tx, book); err != nil {
			return err
		}
		if err := tx.CloseIssue(issue.ID, returnDate, fine); err != nil {
			return err
		}

		closed = *issue
		closed.Status = entities.IssueStatusReturned
		closed.ReturnDate = &returnDate
		closed.FineAmount.Decimal = fine
		closed.FineAmount.Valid = true
		return nil
	})
	if err != nil {
		s.audit(entities.AuditEventLoan, "loan_return", "book_issue", issueID, "Return failed", err)
		return nil, withOp(op, err)
	}

	if closed.FineAmount.Decimal.IsPositive() {
		log.Printf("Loan %d returned late, fine %s", closed.ID, closed.FineAmount.Decimal.StringFixed(2))
	}
	s.audit(entities.AuditEventLoan, "loan_return", "book_issue", issueID,
		fmt.Sprintf("Book %d returned by student %d, fine %s", closed.BookID, closed.StudentID, closed.FineAmount.Decimal.StringFixed(2)), nil)
	return &closed, nil
}

// GetIssue loads a single loan.
func (s *Service) GetIssue(ctx context.Context, issueID uint) (*entities.BookIssue, error) {
	var issue *entities.BookIssue
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		issue, err = tx.GetIssue(issueID)
		return err
	})
	if err != nil {
		return nil, withOp("get issue", err)
	}
	return issue, nil
}

func (s *Service) audit(eventType entities.AuditEventType, action, entityType string, entityID uint, description string, err error) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogLending(eventType, action, entityType, entityID, description, err)
}
