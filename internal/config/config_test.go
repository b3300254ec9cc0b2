package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 14, cfg.Library.LoanPeriodDays)
	assert.Equal(t, 1, cfg.Library.CardValidityYears)
	assert.Equal(t, 3, cfg.Library.ReminderWindowDays)
	assert.Zero(t, cfg.Library.FineGrace)
	assert.Equal(t, "0 8 * * *", cfg.Reminders.ReminderSchedule)
	assert.Equal(t, "0 9 * * *", cfg.Reminders.OverdueSchedule)
	assert.Equal(t, 10*time.Minute, cfg.Reminders.SweepTimeout)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Empty(t, cfg.SMTP.Host)

	rate, err := cfg.Library.FineRate()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.1").Equal(rate))
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("REMINDER_SCHEDULE", "30 7 * * 1-5")
	t.Setenv("REMINDER_WINDOW_DAYS", "5")
	t.Setenv("LIBRARY_TIMEZONE", "Europe/Berlin")
	t.Setenv("SMTP_HOST", "smtp.example.edu")
	t.Setenv("TASK_RELEASE_AFTER", "2m")
	t.Setenv("FINE_GRACE", "24h")

	cfg := NewConfig()

	assert.Equal(t, "30 7 * * 1-5", cfg.Reminders.ReminderSchedule)
	assert.Equal(t, 5, cfg.Library.ReminderWindowDays)
	assert.Equal(t, "smtp.example.edu", cfg.SMTP.Host)
	assert.Equal(t, 2*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, 24*time.Hour, cfg.Library.FineGrace)

	loc, err := cfg.Library.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLibrary_Validation(t *testing.T) {
	_, err := Library{TimeZone: "Mars/Olympus"}.Location()
	assert.Error(t, err)

	loc, err := Library{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Library{FineRatePerHour: "ten cents"}.FineRate()
	assert.Error(t, err)

	_, err = Library{FineRatePerHour: "0"}.FineRate()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OVERDUE_SCHEDULE=15 9 * * *\n"), 0o600))
	t.Setenv("OVERDUE_SCHEDULE", "")
	require.NoError(t, os.Unsetenv("OVERDUE_SCHEDULE"))

	LoadDotEnv(path)
	defer os.Unsetenv("OVERDUE_SCHEDULE")

	assert.Equal(t, "15 9 * * *", NewConfig().Reminders.OverdueSchedule)

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
