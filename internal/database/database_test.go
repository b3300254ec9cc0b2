package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/lending"
)

// setupTestDB creates a fresh file-backed test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "library.db")
	db, err := NewDatabaseWithOptions(dbPath, Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedBook(t *testing.T, db *Database, total int) (*entities.Book, *entities.Student) {
	t.Helper()
	book := &entities.Book{
		Title:             "The Go Programming Language",
		Author:            "Donovan, Kernighan",
		TotalQuantity:     total,
		AvailableQuantity: total,
		Availability:      entities.AvailabilityFor(total),
		Price:             decimal.RequireFromString("39.99"),
	}
	require.NoError(t, db.DB.Create(book).Error)
	student := &entities.Student{Name: "Ada", Email: "ada-" + t.Name() + "@example.edu"}
	require.NoError(t, db.DB.Create(student).Error)
	return book, student
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)

	t.Run("migrates all tables", func(t *testing.T) {
		for _, table := range []string{"publishers", "students", "books", "borrow_requests", "book_issues", "library_cards", "audit_events"} {
			assert.True(t, db.DB.Migrator().HasTable(table), table)
		}
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("dsn appends connection params", func(t *testing.T) {
		assert.Equal(t, "a.db?"+connectionParams, dsn("a.db"))
		assert.Equal(t, "file:a.db?mode=rwc&"+connectionParams, dsn("file:a.db?mode=rwc"))
	})
}

func TestDatabase_QuantityBoundsEnforced(t *testing.T) {
	db := setupTestDB(t)
	book, _ := seedBook(t, db, 1)

	err := db.DB.Model(&entities.Book{}).Where("id = ?", book.ID).Update("available_quantity", 2).Error
	assert.Error(t, err, "available above total must violate the check constraint")

	err = db.DB.Model(&entities.Book{}).Where("id = ?", book.ID).Update("available_quantity", -1).Error
	assert.Error(t, err)
}

func TestDatabase_TransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	book, _ := seedBook(t, db, 2)

	err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Book{}).Where("id = ?", book.ID).Update("available_quantity", 1).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var reloaded entities.Book
	require.NoError(t, db.DB.First(&reloaded, book.ID).Error)
	assert.Equal(t, 2, reloaded.AvailableQuantity)
}

func TestLendingStore_TranslatesErrors(t *testing.T) {
	db := setupTestDB(t)
	store := NewLendingStore(db)
	book, student := seedBook(t, db, 1)
	ctx := context.Background()

	t.Run("missing book is NotFound", func(t *testing.T) {
		err := store.InTx(ctx, func(tx lending.Tx) error {
			_, err := tx.GetBook(9999)
			return err
		})
		assert.ErrorIs(t, err, lending.ErrNotFound)
	})

	t.Run("quantity above total is InvalidState", func(t *testing.T) {
		err := store.InTx(ctx, func(tx lending.Tx) error {
			return tx.UpdateBookQuantity(book.ID, 5, entities.AvailabilityAvailable)
		})
		assert.ErrorIs(t, err, lending.ErrInvalidState)
	})

	t.Run("second live card is DuplicateCard", func(t *testing.T) {
		today := calendar.MustParse("2025-01-10")
		create := func() error {
			return store.InTx(ctx, func(tx lending.Tx) error {
				return tx.CreateCard(&entities.LibraryCard{
					StudentID: student.ID,
					StartDate: today,
					EndDate:   today.AddYears(1),
					Status:    entities.CardStatusPending,
				})
			})
		}
		require.NoError(t, create())
		assert.ErrorIs(t, create(), lending.ErrDuplicateCard)
	})

	t.Run("closing a returned issue is NotBorrowed", func(t *testing.T) {
		issue := &entities.BookIssue{
			BookID:    book.ID,
			StudentID: student.ID,
			IssueDate: calendar.MustParse("2025-01-01"),
			DueDate:   calendar.MustParse("2025-01-15"),
			Status:    entities.IssueStatusIssuing,
		}
		require.NoError(t, db.DB.Create(issue).Error)

		closeIt := func() error {
			return store.InTx(ctx, func(tx lending.Tx) error {
				return tx.CloseIssue(issue.ID, calendar.MustParse("2025-01-14"), decimal.Zero)
			})
		}
		require.NoError(t, closeIt())
		assert.ErrorIs(t, closeIt(), lending.ErrNotBorrowed)
	})

	t.Run("rolled back tx leaves no rows", func(t *testing.T) {
		err := store.InTx(ctx, func(tx lending.Tx) error {
			if err := tx.CreateRequest(&entities.BorrowRequest{
				BookID:      book.ID,
				StudentID:   student.ID,
				RequestDate: calendar.MustParse("2025-01-10"),
				Status:      entities.RequestStatusPending,
			}); err != nil {
				return err
			}
			return lending.OutOfStock(book.ID)
		})
		assert.ErrorIs(t, err, lending.ErrOutOfStock)

		var count int64
		require.NoError(t, db.DB.Model(&entities.BorrowRequest{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestLendingStore_SerializesWriters(t *testing.T) {
	db := setupTestDB(t)
	store := NewLendingStore(db)
	book, _ := seedBook(t, db, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InTx(ctx, func(tx lending.Tx) error {
				b, err := tx.GetBook(book.ID)
				if err != nil {
					return err
				}
				if b.AvailableQuantity <= 0 {
					return lending.OutOfStock(b.ID)
				}
				time.Sleep(5 * time.Millisecond)
				return tx.UpdateBookQuantity(b.ID, b.AvailableQuantity-1, entities.AvailabilityFor(b.AvailableQuantity-1))
			})
			if err == nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
	var reloaded entities.Book
	require.NoError(t, db.DB.First(&reloaded, book.ID).Error)
	assert.Equal(t, 0, reloaded.AvailableQuantity)
}
