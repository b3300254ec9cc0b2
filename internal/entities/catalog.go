package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// AvailabilityFor derives the availability label from a quantity.
func AvailabilityFor(quantity int) Availability {
	if quantity > 0 {
		return AvailabilityAvailable
	}
	return AvailabilityUnavailable
}

type Publisher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Student struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:256" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Book struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Title             string          `gorm:"index;size:512" json:"title"`
	Author            string          `gorm:"index;size:256" json:"author"`
	PublisherID       *uint           `gorm:"index" json:"publisher_id,omitempty"`
	Publisher         *Publisher      `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	PublicationYear   int             `json:"publication_year,omitempty"`
	TotalQuantity     int             `gorm:"not null;default:0;check:chk_books_total,total_quantity >= 0" json:"total_quantity"`
	AvailableQuantity int             `gorm:"not null;default:0;check:chk_books_available,available_quantity >= 0 AND available_quantity <= total_quantity" json:"available_quantity"`
	Availability      Availability    `gorm:"size:20" json:"availability"`
	Price             decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
