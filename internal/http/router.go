package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/demo"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// SweepRunner runs a notification sweep inline.
type SweepRunner = tasks.SweepRunner

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.ReadOnly {
		router.Use(demo.NewMiddleware(true).Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books)
		api.GET("/books", booksController.ListBooks)
		api.GET("/books/search", booksController.SearchBooks)
	}

	if cfg.Lending != nil {
		lendingController := NewLendingController(cfg.Lending)
		api.POST("/requests", lendingController.SubmitRequest)
		api.GET("/requests", lendingController.ListRequests)
		api.POST("/requests/:id/approve", lendingController.Approve)
		api.POST("/requests/:id/reject", lendingController.Reject)
		api.GET("/issues/:id", lendingController.GetIssue)
		api.POST("/issues/:id/return", lendingController.Return)
	}

	if cfg.Cards != nil {
		cardsController := NewCardsController(cfg.Cards)
		api.POST("/cards", cardsController.RequestCard)
		api.POST("/cards/:id/accept", cardsController.AcceptCard)
		api.POST("/cards/:id/extend", cardsController.ExtendCard)
		api.DELETE("/cards/:id", cardsController.DeleteCard)
	}

	if cfg.Sweeps != nil || cfg.TaskQueue != nil {
		sweepsController := NewSweepsController(cfg.TaskQueue, cfg.Sweeps)
		api.POST("/sweeps/:kind", sweepsController.Trigger)
	}

	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
