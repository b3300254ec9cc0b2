package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// BookReader is read-only access to the catalog.
type BookReader interface {
	ListBooks(limit, offset int) ([]entities.Book, int64, error)
	SearchBooks(term string) ([]entities.Book, error)
}

type BooksController struct {
	reader BookReader
}

func NewBooksController(reader BookReader) *BooksController {
	return &BooksController{
		reader: reader,
	}
}

// ListBooks returns the catalog with shelf counts.
// GET /api/books?limit=50&offset=0
func (controller *BooksController) ListBooks(c *gin.Context) {
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	books, total, err := controller.reader.ListBooks(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "total": total, "limit": limit, "offset": offset})
}

// SearchBooks matches title or author.
// GET /api/books/search?q=austen
func (controller *BooksController) SearchBooks(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	books, err := controller.reader.SearchBooks(term)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}
