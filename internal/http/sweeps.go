package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/reminders"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// TaskEnqueuer adds a task to the background queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// SweepsController triggers notification sweeps on demand. With a task
// queue the sweep is enqueued; without one it runs inline.
type SweepsController struct {
	queue  TaskEnqueuer
	runner tasks.SweepRunner
}

func NewSweepsController(queue TaskEnqueuer, runner tasks.SweepRunner) *SweepsController {
	return &SweepsController{queue: queue, runner: runner}
}

// Trigger handles POST /api/sweeps/:kind where kind is reminder or overdue.
func (sc *SweepsController) Trigger(c *gin.Context) {
	kind := reminders.Kind(c.Param("kind"))
	if kind != reminders.KindReminder && kind != reminders.KindOverdue {
		respondBadRequest(c, fmt.Sprintf("unknown sweep kind: %s", kind))
		return
	}

	if sc.queue != nil {
		id, err := sc.queue.Enqueue(c.Request.Context(), tasks.SweepTask{Kind: kind, RequestedBy: "api"})
		if err != nil {
			respondInternalError(c, err, "enqueue sweep")
			return
		}
		respondAccepted(c, "sweep enqueued", gin.H{"task_id": id, "kind": kind})
		return
	}

	if sc.runner == nil {
		respondError(c, http.StatusServiceUnavailable, "sweeps are not configured")
		return
	}

	result, err := sc.runner.Run(c.Request.Context(), kind)
	if errors.Is(err, reminders.ErrSweepRunning) {
		respondError(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "run sweep")
		return
	}
	c.JSON(http.StatusOK, result)
}
