package lending

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// Store opens scoped transactions. Everything done through the Tx passed to
// fn commits together or not at all. Implementations must serialize
// concurrent writers touching the same rows.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the data access available inside a transaction. Lookups of missing
// rows return a KindNotFound *Error; other failures are KindTransientStore.
type Tx interface {
	CatalogTx
	RequestTx
	IssueTx
	CardTx
}

// CatalogTx is the external catalog seen by the lending core.
type CatalogTx interface {
	GetBook(id uint) (*entities.Book, error)
	UpdateBookQuantity(id uint, quantity int, availability entities.Availability) error
	GetStudent(id uint) (*entities.Student, error)
}

type RequestTx interface {
	CreateRequest(req *entities.BorrowRequest) error
	GetRequest(id uint) (*entities.BorrowRequest, error)
	UpdateRequestStatus(id uint, status entities.RequestStatus) error
	ListRequests(status entities.RequestStatus) ([]entities.BorrowRequest, error)
}

type IssueTx interface {
	CreateIssue(issue *entities.BookIssue) error
	GetIssue(id uint) (*entities.BookIssue, error)
	// FindActiveIssue returns nil, nil when the student holds no issuing loan
	// of the book.
	FindActiveIssue(studentID, bookID uint) (*entities.BookIssue, error)
	CloseIssue(id uint, returnDate calendar.Date, fine decimal.Decimal) error
}

type CardTx interface {
	CreateCard(card *entities.LibraryCard) error
	GetCard(id uint) (*entities.LibraryCard, error)
	// FindCardByStudent returns nil, nil when the student has no card.
	FindCardByStudent(studentID uint) (*entities.LibraryCard, error)
	UpdateCard(card *entities.LibraryCard) error
	DeleteCard(id uint) error
}

// Auditor records lifecycle transitions. Implementations must not block.
type Auditor interface {
	LogLending(eventType entities.AuditEventType, action, entityType string, entityID uint, description string, err error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
