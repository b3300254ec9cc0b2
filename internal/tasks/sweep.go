package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/reminders"
)

// SweepRunner runs one notification sweep.
type SweepRunner interface {
	Run(ctx context.Context, kind reminders.Kind) (reminders.SweepResult, error)
}

// SweepTask runs a reminder or overdue sweep outside of its cron schedule.
type SweepTask struct {
	Kind        reminders.Kind `json:"kind"`
	RequestedBy string         `json:"requested_by,omitempty"`
}

func (t SweepTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "notification_sweep",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepProcessor creates a processor for SweepTask. A sweep that is already
// running covers the request, so it is not retried.
func SweepProcessor(runner SweepRunner) backlite.QueueProcessor[SweepTask] {
	return func(ctx context.Context, task SweepTask) error {
		if runner == nil {
			return fmt.Errorf("sweep runner not configured")
		}

		result, err := runner.Run(ctx, task.Kind)
		if errors.Is(err, reminders.ErrSweepRunning) {
			log.Printf("[TASK] %s sweep already running, request from %q dropped", task.Kind, task.RequestedBy)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s sweep: %w", task.Kind, err)
		}

		log.Printf("[TASK] %s sweep %s: %d scanned, %d sent, %d failed",
			task.Kind, result.RunID, result.Scanned, result.Sent, result.Failed)
		return nil
	}
}

// NewSweepQueue creates a backlite queue for sweep tasks.
func NewSweepQueue(runner SweepRunner) backlite.Queue {
	return backlite.NewQueue(SweepProcessor(runner))
}
