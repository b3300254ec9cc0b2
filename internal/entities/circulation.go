package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/calendar"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type IssueStatus string

const (
	IssueStatusIssuing  IssueStatus = "issuing"
	IssueStatusReturned IssueStatus = "returned"
)

type CardStatus string

const (
	CardStatusPending  CardStatus = "pending"
	CardStatusAccepted CardStatus = "accepted"
)

type BorrowRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	BookID      uint          `gorm:"index;not null" json:"book_id"`
	StudentID   uint          `gorm:"index;not null" json:"student_id"`
	RequestDate calendar.Date `gorm:"not null" json:"request_date"`
	Status      RequestStatus `gorm:"index;size:20;not null" json:"status"`
	Book        *Book         `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Student     *Student      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (r BorrowRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// BookIssue is a single loan of a book to a student.
type BookIssue struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	BookID     uint                `gorm:"index:idx_issue_student_book;not null" json:"book_id"`
	StudentID  uint                `gorm:"index:idx_issue_student_book;not null" json:"student_id"`
	RequestID  *uint               `gorm:"uniqueIndex" json:"request_id,omitempty"`
	IssueDate  calendar.Date       `gorm:"not null" json:"issue_date"`
	DueDate    calendar.Date       `gorm:"index;not null" json:"due_date"`
	ReturnDate *calendar.Date      `json:"return_date"`
	FineAmount decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"fine_amount"`
	Status     IssueStatus         `gorm:"index;size:20;not null" json:"status"`

	// Delivery bookkeeping for the reminder sweeps
	ReminderSent        bool       `gorm:"not null;default:false" json:"reminder_sent"`
	ReminderSentAt      *time.Time `json:"reminder_sent_at,omitempty"`
	OverdueNoticeSent   bool       `gorm:"not null;default:false" json:"overdue_notice_sent"`
	OverdueNoticeSentAt *time.Time `json:"overdue_notice_sent_at,omitempty"`

	Book      *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i BookIssue) IsActive() bool {
	return i.Status == IssueStatusIssuing && i.ReturnDate == nil
}

type LibraryCard struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StudentID uint           `gorm:"uniqueIndex:idx_cards_active_student,where:deleted_at IS NULL;not null" json:"student_id"`
	StartDate calendar.Date  `gorm:"not null" json:"start_date"`
	EndDate   calendar.Date  `gorm:"not null" json:"end_date"`
	Status    CardStatus     `gorm:"size:20;not null" json:"status"`
	Student   *Student       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
