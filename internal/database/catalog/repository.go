// Package catalog provides database operations for books, publishers and
// students. The lending core only reads books and students and adjusts the
// available quantity; the create helpers exist for seeding and tests.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	book, err := repo.GetBook(id)
package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// ErrQuantityRejected is returned when a quantity update would break
// 0 <= available_quantity <= total_quantity.
var ErrQuantityRejected = errors.New("quantity update rejected")

// Repository handles catalog database operations.
type Repository struct {
	db      *gorm.DB
	locking bool
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ForUpdate returns a repository whose reads lock the selected rows until the
// surrounding transaction ends, on engines that support row locks.
func (r *Repository) ForUpdate() *Repository {
	return &Repository{db: r.db, locking: true}
}

func (r *Repository) query() *gorm.DB {
	if r.locking {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

// GetBook retrieves a book by ID.
func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.query().First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBookQuantity sets the available quantity and availability label.
// The update is conditional on the new quantity fitting the total, so a
// concurrent catalog edit cannot push the row out of bounds.
func (r *Repository) UpdateBookQuantity(id uint, quantity int, availability entities.Availability) error {
	if quantity < 0 {
		return ErrQuantityRejected
	}
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND total_quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"available_quantity": quantity,
			"availability":       availability,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetBook(id); err != nil {
			return err
		}
		return ErrQuantityRejected
	}
	return nil
}

// GetStudent retrieves a student by ID.
func (r *Repository) GetStudent(id uint) (*entities.Student, error) {
	var student entities.Student
	if err := r.query().First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// CreateStudent inserts a student.
func (r *Repository) CreateStudent(student *entities.Student) error {
	return r.db.Create(student).Error
}

// CreatePublisher returns the publisher with the given name, creating it when
// missing.
func (r *Repository) CreatePublisher(name string) (*entities.Publisher, error) {
	publisher := entities.Publisher{Name: name}
	if err := r.db.Where(entities.Publisher{Name: name}).FirstOrCreate(&publisher).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

// CreateBook inserts a book with every copy on the shelf.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.CreateBookWithStock(book, book.TotalQuantity)
}

// CreateBookWithStock inserts a book with only available of its copies on
// the shelf, for catalogs imported while copies are out or at the bindery.
func (r *Repository) CreateBookWithStock(book *entities.Book, available int) error {
	if available < 0 || available > book.TotalQuantity {
		return fmt.Errorf("%w: %d of %d copies available for %q", ErrQuantityRejected, available, book.TotalQuantity, book.Title)
	}
	book.AvailableQuantity = available
	book.Availability = entities.AvailabilityFor(available)
	return r.db.Create(book).Error
}

// ListBooks returns books ordered by title.
func (r *Repository) ListBooks(limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.Model(&entities.Book{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Preload("Publisher").Order("title ASC").Limit(limit).Offset(offset).Find(&books).Error
	return books, total, err
}

// SearchBooks matches title or author by substring.
func (r *Repository) SearchBooks(term string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + term + "%"
	err := r.db.Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("title ASC").
		Find(&books).Error
	return books, err
}
