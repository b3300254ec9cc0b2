package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// LendingService is the borrowing lifecycle exposed over HTTP.
type LendingService interface {
	SubmitRequest(ctx context.Context, bookID, studentID uint) (*entities.BorrowRequest, error)
	ListRequests(ctx context.Context, status entities.RequestStatus) ([]entities.BorrowRequest, error)
	Approve(ctx context.Context, requestID uint) (*entities.BookIssue, error)
	Reject(ctx context.Context, requestID uint) (*entities.BorrowRequest, error)
	Return(ctx context.Context, issueID uint) (*entities.BookIssue, error)
	GetIssue(ctx context.Context, issueID uint) (*entities.BookIssue, error)
}

type LendingController struct {
	service LendingService
}

func NewLendingController(service LendingService) *LendingController {
	return &LendingController{service: service}
}

// SubmitRequestBody is the payload for a new borrow request.
type SubmitRequestBody struct {
	BookID    uint `json:"book_id" form:"book_id"`
	StudentID uint `json:"student_id" form:"student_id"`
}

// SubmitRequest queues a borrow request.
// POST /api/requests
func (lc *LendingController) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBind(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	req, err := lc.service.SubmitRequest(c.Request.Context(), body.BookID, body.StudentID)
	if err != nil {
		respondLendingError(c, err, "submit request")
		return
	}
	respondCreated(c, req)
}

// ListRequests returns borrow requests, optionally filtered by status.
// GET /api/requests?status=pending
func (lc *LendingController) ListRequests(c *gin.Context) {
	status := entities.RequestStatus(c.Query("status"))

	requests, err := lc.service.ListRequests(c.Request.Context(), status)
	if err != nil {
		respondLendingError(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: requests, Count: len(requests)})
}

// Approve issues the requested book.
// POST /api/requests/:id/approve
func (lc *LendingController) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := lc.service.Approve(c.Request.Context(), id)
	if err != nil {
		respondLendingError(c, err, "approve request")
		return
	}
	respondCreated(c, issue)
}

// Reject closes a pending request.
// POST /api/requests/:id/reject
func (lc *LendingController) Reject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	req, err := lc.service.Reject(c.Request.Context(), id)
	if err != nil {
		respondLendingError(c, err, "reject request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetIssue returns a single loan.
// GET /api/issues/:id
func (lc *LendingController) GetIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := lc.service.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondLendingError(c, err, "get issue")
		return
	}
	c.JSON(http.StatusOK, issue)
}

// Return closes a loan and reports the fine.
// POST /api/issues/:id/return
func (lc *LendingController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := lc.service.Return(c.Request.Context(), id)
	if err != nil {
		respondLendingError(c, err, "return loan")
		return
	}
	c.JSON(http.StatusOK, issue)
}
