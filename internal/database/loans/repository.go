// Package loans provides database operations for borrow requests and book
// issues.
package loans

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// ErrNotIssuing is returned when closing an issue that is no longer issuing.
var ErrNotIssuing = errors.New("issue is not issuing")

// ErrNotPending is returned when moving a request that already left pending.
var ErrNotPending = errors.New("request is not pending")

type Repository struct {
	db      *gorm.DB
	locking bool
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ForUpdate returns a repository whose reads lock the selected rows.
func (r *Repository) ForUpdate() *Repository {
	return &Repository{db: r.db, locking: true}
}

func (r *Repository) query() *gorm.DB {
	if r.locking {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

// CreateRequest inserts a borrow request.
func (r *Repository) CreateRequest(req *entities.BorrowRequest) error {
	return r.db.Create(req).Error
}

// GetRequest retrieves a borrow request by ID.
func (r *Repository) GetRequest(id uint) (*entities.BorrowRequest, error) {
	var req entities.BorrowRequest
	if err := r.query().First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRequestStatus moves a pending request to status. Requests that
// already reached a terminal state are left untouched.
func (r *Repository) UpdateRequestStatus(id uint, status entities.RequestStatus) error {
	result := r.db.Model(&entities.BorrowRequest{}).
		Where("id = ? AND status = ?", id, entities.RequestStatusPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetRequest(id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// ListRequests returns requests newest first, filtered by status when given.
func (r *Repository) ListRequests(status entities.RequestStatus) ([]entities.BorrowRequest, error) {
	var requests []entities.BorrowRequest
	query := r.db.Preload("Book").Preload("Student")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("request_date DESC, id DESC").Find(&requests).Error
	return requests, err
}

// CreateIssue inserts a loan.
func (r *Repository) CreateIssue(issue *entities.BookIssue) error {
	return r.db.Create(issue).Error
}

// GetIssue retrieves a loan by ID.
func (r *Repository) GetIssue(id uint) (*entities.BookIssue, error) {
	var issue entities.BookIssue
	if err := r.query().First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// FindActiveIssue returns the issuing loan of bookID held by studentID, or
// nil when there is none.
func (r *Repository) FindActiveIssue(studentID, bookID uint) (*entities.BookIssue, error) {
	var issue entities.BookIssue
	err := r.query().
		Where("student_id = ? AND book_id = ? AND status = ? AND return_date IS NULL",
			studentID, bookID, entities.IssueStatusIssuing).
		First(&issue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// CloseIssue marks an issuing loan returned with its fine.
func (r *Repository) CloseIssue(id uint, returnDate calendar.Date, fine decimal.Decimal) error {
	result := r.db.Model(&entities.BookIssue{}).
		Where("id = ? AND status = ? AND return_date IS NULL", id, entities.IssueStatusIssuing).
		Updates(map[string]interface{}{
			"status":      entities.IssueStatusReturned,
			"return_date": returnDate,
			"fine_amount": decimal.NewNullDecimal(fine),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetIssue(id); err != nil {
			return err
		}
		return ErrNotIssuing
	}
	return nil
}
