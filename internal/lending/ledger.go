package lending

import (
	"log"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// checkOut takes one copy of book off the shelf.
func checkOut(tx CatalogTx, book *entities.Book) error {
	if book.AvailableQuantity <= 0 {
		return OutOfStock(book.ID)
	}
	quantity := book.AvailableQuantity - 1
	availability := entities.AvailabilityFor(quantity)
	if err := tx.UpdateBookQuantity(book.ID, quantity, availability); err != nil {
		return err
	}
	book.AvailableQuantity = quantity
	book.Availability = availability
	return nil
}

// checkIn puts one copy of book back. The count never exceeds the catalog
// total; a book whose total was lowered while copies were out stays capped.
func checkIn(tx CatalogTx, book *entities.Book) error {
	quantity := book.AvailableQuantity + 1
	if quantity > book.TotalQuantity {
		log.Printf("Inventory: book %d already has %d/%d copies on the shelf, not incrementing",
			book.ID, book.AvailableQuantity, book.TotalQuantity)
		quantity = book.TotalQuantity
	}
	availability := entities.AvailabilityFor(quantity)
	if err := tx.UpdateBookQuantity(book.ID, quantity, availability); err != nil {
		return err
	}
	book.AvailableQuantity = quantity
	book.Availability = availability
	return nil
}
