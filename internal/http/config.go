package http

// RouterConfig contains the dependencies needed to build the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database Pinger
	Lending  LendingService
	Cards    CardService
	Books    BookReader

	// Sweeps run through the task queue when TaskQueue is set, inline otherwise.
	Sweeps    SweepRunner
	TaskQueue TaskEnqueuer
	Tasks     TaskStatusReader

	// ReadOnly rejects every write, for serving a demo database.
	ReadOnly bool

	// Application info
	Version string
}
