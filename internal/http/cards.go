package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// CardService manages library cards.
type CardService interface {
	RequestCard(ctx context.Context, studentID uint) (*entities.LibraryCard, error)
	AcceptCard(ctx context.Context, cardID uint) (*entities.LibraryCard, error)
	ExtendCard(ctx context.Context, cardID uint) (*entities.LibraryCard, error)
	DeleteCard(ctx context.Context, cardID uint) error
}

type CardsController struct {
	service CardService
}

func NewCardsController(service CardService) *CardsController {
	return &CardsController{service: service}
}

type RequestCardBody struct {
	StudentID uint `json:"student_id" form:"student_id"`
}

// RequestCard opens a pending card for a student.
// POST /api/cards
func (cc *CardsController) RequestCard(c *gin.Context) {
	var body RequestCardBody
	if err := c.ShouldBind(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	card, err := cc.service.RequestCard(c.Request.Context(), body.StudentID)
	if err != nil {
		respondLendingError(c, err, "request card")
		return
	}
	respondCreated(c, card)
}

// AcceptCard POST /api/cards/:id/accept
func (cc *CardsController) AcceptCard(c *gin.Context) {
	cc.transition(c, "accept card", cc.service.AcceptCard)
}

// ExtendCard POST /api/cards/:id/extend
func (cc *CardsController) ExtendCard(c *gin.Context) {
	cc.transition(c, "extend card", cc.service.ExtendCard)
}

// DeleteCard DELETE /api/cards/:id
func (cc *CardsController) DeleteCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.service.DeleteCard(c.Request.Context(), id); err != nil {
		respondLendingError(c, err, "delete card")
		return
	}
	respondSuccess(c, "card deleted")
}

func (cc *CardsController) transition(c *gin.Context, op string, fn func(context.Context, uint) (*entities.LibraryCard, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	card, err := fn(c.Request.Context(), id)
	if err != nil {
		respondLendingError(c, err, op)
		return
	}
	c.JSON(http.StatusOK, card)
}
