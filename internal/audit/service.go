package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// queueSize bounds how many events LogAsync buffers before callers block.
const queueSize = 256

// Service provides high-level audit logging functionality. Events handed to
// LogAsync are written by a single goroutine in the order they were logged.
type Service struct {
	repo    *audit.Repository
	archive *Archive

	mu      sync.Mutex
	queue   chan *entities.AuditEvent
	closed  bool
	pending sync.WaitGroup
	done    chan struct{}
}

// NewService creates a new audit service and starts its writer.
func NewService(repo *audit.Repository) *Service {
	s := &Service{
		repo:  repo,
		queue: make(chan *entities.AuditEvent, queueSize),
		done:  make(chan struct{}),
	}
	go s.writer()
	return s
}

func (s *Service) writer() {
	defer close(s.done)
	for event := range s.queue {
		s.write(event)
		s.pending.Done()
	}
}

func (s *Service) write(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		log.Printf("Audit: failed to log %s event: %v", event.Action, err)
	}
}

// SetArchive enables JSON report files for sweep runs.
func (s *Service) SetArchive(archive *Archive) {
	s.archive = archive
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync queues an event for the writer. The event is stamped now, so its
// created_at reflects when it happened rather than when it was written. After
// Close the event is written synchronously.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.write(event)
		return
	}
	s.pending.Add(1)
	s.queue <- event
	s.mu.Unlock()
}

// Flush waits until every event queued so far has been written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// Close drains the queue and stops the writer.
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

// LogLending records a request, loan or card transition.
func (s *Service) LogLending(eventType entities.AuditEventType, action, entityType string, entityID uint, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
		Status:      entities.AuditStatusSuccess,
	}
	if entityID > 0 {
		event.EntityID = &entityID
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogSweep records the outcome of a reminder or overdue sweep run and, when
// an archive is configured, writes the run report to it.
func (s *Service) LogSweep(kind, runID string, scanned, sent, failed int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSweep,
		Action:      kind + "_sweep",
		Description: fmt.Sprintf("Sweep %s: %d scanned, %d sent, %d failed", runID, scanned, sent, failed),
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"run_id":  runID,
		"kind":    kind,
		"scanned": scanned,
		"sent":    sent,
		"failed":  failed,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	} else if failed > 0 {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = fmt.Sprintf("%d notifications failed", failed)
	}

	if s.archive != nil {
		metadata["status"] = event.Status
		metadata["recorded_at"] = time.Now().UTC()
		if _, archiveErr := s.archive.SaveReport(runID, metadata); archiveErr != nil {
			log.Printf("Audit: failed to archive sweep %s: %v", runID, archiveErr)
		}
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// PruneReports removes archived sweep reports older than retention. Without
// an archive there is nothing to prune.
func (s *Service) PruneReports(retention time.Duration) (int, error) {
	if s.archive == nil {
		return 0, nil
	}
	return s.archive.Prune(time.Now().Add(-retention))
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
