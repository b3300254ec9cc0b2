package config

const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./librarydesk.db"

	// DefaultReminderSchedule fires the due-soon sweep every morning at 08:00
	DefaultReminderSchedule = "0 8 * * *"

	// DefaultOverdueSchedule fires the overdue sweep every morning at 09:00
	DefaultOverdueSchedule = "0 9 * * *"
)
