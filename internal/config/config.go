package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Reminders
		SMTP
		Audit
		Tasks
		Demo
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Library struct {
		TimeZone           string // IANA name, e.g. "Europe/Berlin"
		LoanPeriodDays     int
		CardValidityYears  int
		FineRatePerHour    string // decimal string, e.g. "0.1"
		FineGrace          time.Duration
		ReminderWindowDays int
	}
	Reminders struct {
		Enabled          bool
		ReminderSchedule string // Cron format: "0 8 * * *" = daily at 08:00
		OverdueSchedule  string // Cron format: "0 9 * * *" = daily at 09:00
		SweepTimeout     time.Duration
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Demo struct {
		Enabled bool // Serve the database read-only
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// Location resolves the library time zone.
func (l Library) Location() (*time.Location, error) {
	if l.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid LIBRARY_TIMEZONE %q: %w", l.TimeZone, err)
	}
	return loc, nil
}

// FineRate parses the hourly fine rate.
func (l Library) FineRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(l.FineRatePerHour)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid FINE_RATE_PER_HOUR %q: %w", l.FineRatePerHour, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("FINE_RATE_PER_HOUR must be positive, got %s", rate)
	}
	return rate, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		log.Println("No .env file loaded, using environment variables")
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Circulation policy
	v.SetDefault("library_timezone", "UTC")
	v.SetDefault("loan_period_days", 14)
	v.SetDefault("card_validity_years", 1)
	v.SetDefault("fine_rate_per_hour", "0.1")
	v.SetDefault("fine_grace", "0s")
	v.SetDefault("reminder_window_days", 3)

	// Reminder sweeps
	v.SetDefault("reminders_enabled", true)
	v.SetDefault("reminder_schedule", DefaultReminderSchedule)
	v.SetDefault("overdue_schedule", DefaultOverdueSchedule)
	v.SetDefault("sweep_timeout", "10m")

	// Outgoing mail; an empty host logs messages instead of sending them
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "Library Desk <library@localhost>")

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)

	v.SetDefault("demo_mode", false)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			TimeZone:           v.GetString("LIBRARY_TIMEZONE"),
			LoanPeriodDays:     v.GetInt("LOAN_PERIOD_DAYS"),
			CardValidityYears:  v.GetInt("CARD_VALIDITY_YEARS"),
			FineRatePerHour:    v.GetString("FINE_RATE_PER_HOUR"),
			FineGrace:          v.GetDuration("FINE_GRACE"),
			ReminderWindowDays: v.GetInt("REMINDER_WINDOW_DAYS"),
		},
		Reminders: Reminders{
			Enabled:          v.GetBool("REMINDERS_ENABLED"),
			ReminderSchedule: v.GetString("REMINDER_SCHEDULE"),
			OverdueSchedule:  v.GetString("OVERDUE_SCHEDULE"),
			SweepTimeout:     v.GetDuration("SWEEP_TIMEOUT"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
		},
	}
}
