// Package cards provides database operations for library cards.
package cards

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/entities"
)

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

// CreateCard inserts a card. A second live card for the same student fails
// with gorm.ErrDuplicatedKey.
func (r *Repository) CreateCard(card *entities.LibraryCard) error {
	return r.db.Create(card).Error
}

// GetCard retrieves a live card by ID.
func (r *Repository) GetCard(id uint) (*entities.LibraryCard, error) {
	var card entities.LibraryCard
	if err := r.query().First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// FindCardByStudent returns the live card of a student, or nil.
func (r *Repository) FindCardByStudent(studentID uint) (*entities.LibraryCard, error) {
	var card entities.LibraryCard
	err := r.query().Where("student_id = ?", studentID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard persists status and validity dates.
func (r *Repository) UpdateCard(card *entities.LibraryCard) error {
	result := r.db.Model(&entities.LibraryCard{}).
		Where("id = ?", card.ID).
		Updates(map[string]interface{}{
			"status":     card.Status,
			"start_date": card.StartDate,
			"end_date":   card.EndDate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCard soft-deletes a card.
func (r *Repository) DeleteCard(id uint) error {
	result := r.db.Delete(&entities.LibraryCard{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
