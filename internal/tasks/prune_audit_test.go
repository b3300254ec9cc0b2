package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPruner struct {
	eventRetention  time.Duration
	reportRetention time.Duration
	eventsErr       error
	reportsErr      error
}

func (s *stubPruner) DeleteOldEvents(retention time.Duration) (int64, error) {
	s.eventRetention = retention
	return 4, s.eventsErr
}

func (s *stubPruner) PruneReports(retention time.Duration) (int, error) {
	s.reportRetention = retention
	return 2, s.reportsErr
}

func TestPruneAuditTrailTaskConfig(t *testing.T) {
	cfg := PruneAuditTrailTask{}.Config()

	assert.Equal(t, "prune_audit_trail", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	require.NotNil(t, cfg.Retention)
}

func TestPruneAuditTrailProcessor(t *testing.T) {
	t.Run("default retention", func(t *testing.T) {
		pruner := &stubPruner{}
		require.NoError(t, PruneAuditTrailProcessor(pruner)(context.Background(), PruneAuditTrailTask{}))
		assert.Equal(t, 90*24*time.Hour, pruner.eventRetention)
		assert.Equal(t, 90*24*time.Hour, pruner.reportRetention)
	})

	t.Run("custom retention", func(t *testing.T) {
		pruner := &stubPruner{}
		require.NoError(t, PruneAuditTrailProcessor(pruner)(context.Background(), PruneAuditTrailTask{RetentionDays: 7}))
		assert.Equal(t, 7*24*time.Hour, pruner.eventRetention)
		assert.Equal(t, 7*24*time.Hour, pruner.reportRetention)
	})

	t.Run("event failure skips reports", func(t *testing.T) {
		pruner := &stubPruner{eventsErr: errors.New("database is locked")}
		err := PruneAuditTrailProcessor(pruner)(context.Background(), PruneAuditTrailTask{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prune audit events")
		assert.Zero(t, pruner.reportRetention)
	})

	t.Run("report failure is returned for retry", func(t *testing.T) {
		pruner := &stubPruner{reportsErr: errors.New("permission denied")}
		err := PruneAuditTrailProcessor(pruner)(context.Background(), PruneAuditTrailTask{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prune sweep reports")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		pruner := &stubPruner{}
		assert.ErrorIs(t, PruneAuditTrailProcessor(pruner)(ctx, PruneAuditTrailTask{}), context.Canceled)
		assert.Zero(t, pruner.eventRetention)
	})

	t.Run("missing audit service", func(t *testing.T) {
		assert.Error(t, PruneAuditTrailProcessor(nil)(context.Background(), PruneAuditTrailTask{}))
	})
}
