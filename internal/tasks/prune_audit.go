package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a prune task carries no retention.
const DefaultAuditRetentionDays = 90

// AuditTrailPruner drops circulation history past its retention: lending and
// sweep events in the database and archived sweep reports on disk.
type AuditTrailPruner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
	PruneReports(retention time.Duration) (int, error)
}

// PruneAuditTrailTask is enqueued at startup so a long-running desk keeps
// only RetentionDays of loan, card and sweep history.
type PruneAuditTrailTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t PruneAuditTrailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_audit_trail",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t PruneAuditTrailTask) retention() (int, time.Duration) {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return days, time.Duration(days) * 24 * time.Hour
}

// PruneAuditTrailProcessor removes events first, then report files. A failed
// report prune is retried; the events it already removed stay removed.
func PruneAuditTrailProcessor(pruner AuditTrailPruner) backlite.QueueProcessor[PruneAuditTrailTask] {
	return func(ctx context.Context, task PruneAuditTrailTask) error {
		if pruner == nil {
			return errors.New("prune audit trail: no audit service")
		}
		days, retention := task.retention()

		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := pruner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("prune audit events: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		reports, err := pruner.PruneReports(retention)
		if err != nil {
			return fmt.Errorf("prune sweep reports: %w", err)
		}

		log.Printf("[TASK] Audit trail: dropped %d events and %d sweep reports older than %d days", events, reports, days)
		return nil
	}
}

func NewPruneAuditTrailQueue(pruner AuditTrailPruner) backlite.Queue {
	return backlite.NewQueue(PruneAuditTrailProcessor(pruner))
}
