// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Lending
//
//   - lending.Store / lending.Tx: transactional persistence for requests, loans,
//     cards and catalog counts (internal/lending/store.go). Implemented by
//     database.LendingStore, which maps gorm errors to lending error kinds.
//   - lending.Auditor: records lifecycle transitions (internal/audit/service.go)
//   - lending.Clock: injectable time source for due dates and fines
//
// ## Notifications
//
//   - reminders.Store: due-soon/overdue candidate queries and once-only flags
//     (internal/database/sweeps)
//   - notify.Sender: message delivery; SMTPSender in production, LogSender
//     when SMTP is not configured
//   - reminders.Auditor: records sweep results
//
// ## Triggers
//
// A sweep can start from three places, all of which depend only on a
// SweepRunner (satisfied by *reminders.Sweeper):
//
//   - scheduler.ReminderScheduler: daily cron entries
//   - tasks.SweepTask: background queue, used by POST /api/sweeps/:kind
//   - cli.SweepCommand: the reminder-sweep and overdue-sweep commands
//
// # Adding a New Notification
//
//  1. Add a template under internal/notify/templates and a builder next to
//     DueSoonMessage.
//  2. Add a candidate query and a mark method to reminders.Store, with a
//     conditional update on its own flag column.
//  3. Add a Kind and a Run branch in reminders.Sweeper.
//  4. Register a schedule in scheduler.ReminderScheduler.
//
// # Compile-Time Checks
//
// checks.go asserts every implementation above at build time.
package interfaces
