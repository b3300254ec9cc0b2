package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 8 * * *":
		return "Daily at 08:00"
	case "0 9 * * *":
		return "Daily at 09:00"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 8 * * 1-5":
		return "Weekdays at 08:00"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates the next activation after from, evaluated in loc.
func GetNextRunTime(schedule string, from time.Time, loc *time.Location) (*time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	next := sched.Next(from.In(loc))
	return &next, nil
}
