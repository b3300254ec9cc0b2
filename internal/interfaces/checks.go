package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/cli"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/catalog"
	"github.com/mrlokans/librarydesk/internal/database/sweeps"
	"github.com/mrlokans/librarydesk/internal/http"
	"github.com/mrlokans/librarydesk/internal/lending"
	"github.com/mrlokans/librarydesk/internal/notify"
	"github.com/mrlokans/librarydesk/internal/reminders"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// =============================================================================
// Lending Core
// =============================================================================

// Store implementations
var _ lending.Store = (*database.LendingStore)(nil)

// Auditor implementations
var _ lending.Auditor = (*audit.Service)(nil)
var _ reminders.Auditor = (*audit.Service)(nil)

// =============================================================================
// Notifications
// =============================================================================

// Sweep candidate store
var _ reminders.Store = (*sweeps.Repository)(nil)

// Sender implementations
var _ notify.Sender = (*notify.SMTPSender)(nil)
var _ notify.Sender = notify.LogSender{}

// SweepRunner implementations
var _ scheduler.SweepRunner = (*reminders.Sweeper)(nil)
var _ tasks.SweepRunner = (*reminders.Sweeper)(nil)
var _ cli.SweepRunner = (*reminders.Sweeper)(nil)

// =============================================================================
// HTTP Boundary
// =============================================================================

var _ http.LendingService = (*lending.Service)(nil)
var _ http.CardService = (*lending.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ http.BookReader = (*catalog.Repository)(nil)
var _ http.TaskEnqueuer = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.AuditTrailPruner = (*audit.Service)(nil)
