package database

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/database/cards"
	"github.com/mrlokans/librarydesk/internal/database/catalog"
	"github.com/mrlokans/librarydesk/internal/database/loans"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/lending"
)

// LendingStore adapts the gorm repositories to lending.Store. Persistence
// errors leave this type already classified as lending errors.
type LendingStore struct {
	db *Database
}

func NewLendingStore(db *Database) *LendingStore {
	return &LendingStore{db: db}
}

// InTx implements lending.Store.
func (s *LendingStore) InTx(ctx context.Context, fn func(tx lending.Tx) error) error {
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return fn(&lendingTx{
			catalog: catalog.NewRepository(tx).ForUpdate(),
			loans:   loans.NewRepository(tx).ForUpdate(),
			cards:   cards.NewRepository(tx).ForUpdate(),
		})
	})
	if err == nil {
		return nil
	}
	var le *lending.Error
	if errors.As(err, &le) {
		return err
	}
	return lending.TransientStore(pkgerrors.Wrap(err, "transaction"))
}

type lendingTx struct {
	catalog *catalog.Repository
	loans   *loans.Repository
	cards   *cards.Repository
}

func (t *lendingTx) GetBook(id uint) (*entities.Book, error) {
	book, err := t.catalog.GetBook(id)
	return book, translate(err, "book", id)
}

func (t *lendingTx) UpdateBookQuantity(id uint, quantity int, availability entities.Availability) error {
	err := t.catalog.UpdateBookQuantity(id, quantity, availability)
	if errors.Is(err, catalog.ErrQuantityRejected) {
		return lending.InvalidState("book %d cannot hold %d available copies", id, quantity)
	}
	return translate(err, "book", id)
}

func (t *lendingTx) GetStudent(id uint) (*entities.Student, error) {
	student, err := t.catalog.GetStudent(id)
	return student, translate(err, "student", id)
}

func (t *lendingTx) CreateRequest(req *entities.BorrowRequest) error {
	return translate(t.loans.CreateRequest(req), "request", req.ID)
}

func (t *lendingTx) GetRequest(id uint) (*entities.BorrowRequest, error) {
	req, err := t.loans.GetRequest(id)
	return req, translate(err, "request", id)
}

func (t *lendingTx) UpdateRequestStatus(id uint, status entities.RequestStatus) error {
	err := t.loans.UpdateRequestStatus(id, status)
	if errors.Is(err, loans.ErrNotPending) {
		return lending.InvalidState("request %d is no longer pending", id)
	}
	return translate(err, "request", id)
}

func (t *lendingTx) ListRequests(status entities.RequestStatus) ([]entities.BorrowRequest, error) {
	requests, err := t.loans.ListRequests(status)
	return requests, translate(err, "request", 0)
}

func (t *lendingTx) CreateIssue(issue *entities.BookIssue) error {
	err := t.loans.CreateIssue(issue)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return lending.InvalidState("request already has an issue")
	}
	return translate(err, "issue", issue.ID)
}

func (t *lendingTx) GetIssue(id uint) (*entities.BookIssue, error) {
	issue, err := t.loans.GetIssue(id)
	return issue, translate(err, "issue", id)
}

func (t *lendingTx) FindActiveIssue(studentID, bookID uint) (*entities.BookIssue, error) {
	issue, err := t.loans.FindActiveIssue(studentID, bookID)
	return issue, translate(err, "issue", 0)
}

func (t *lendingTx) CloseIssue(id uint, returnDate calendar.Date, fine decimal.Decimal) error {
	err := t.loans.CloseIssue(id, returnDate, fine)
	if errors.Is(err, loans.ErrNotIssuing) {
		return &lending.Error{Kind: lending.KindNotBorrowed, Message: "issue is already closed"}
	}
	return translate(err, "issue", id)
}

func (t *lendingTx) CreateCard(card *entities.LibraryCard) error {
	err := t.cards.CreateCard(card)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return lending.DuplicateCard(card.StudentID)
	}
	return translate(err, "card", card.ID)
}

func (t *lendingTx) GetCard(id uint) (*entities.LibraryCard, error) {
	card, err := t.cards.GetCard(id)
	return card, translate(err, "card", id)
}

func (t *lendingTx) FindCardByStudent(studentID uint) (*entities.LibraryCard, error) {
	card, err := t.cards.FindCardByStudent(studentID)
	return card, translate(err, "card", 0)
}

func (t *lendingTx) UpdateCard(card *entities.LibraryCard) error {
	return translate(t.cards.UpdateCard(card), "card", card.ID)
}

func (t *lendingTx) DeleteCard(id uint) error {
	return translate(t.cards.DeleteCard(id), "card", id)
}

// translate maps gorm errors onto lending kinds.
func translate(err error, entity string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lending.NotFound(entity, id)
	}
	return lending.TransientStore(pkgerrors.Wrapf(err, "%s %d", entity, id))
}

var _ lending.Store = (*LendingStore)(nil)
