package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/reminders"
)

// SweepRunner runs one notification sweep.
type SweepRunner interface {
	Run(ctx context.Context, kind reminders.Kind) (reminders.SweepResult, error)
}

// SweepCommand runs a single reminder or overdue sweep and exits, for use
// from an external scheduler instead of the in-process cron.
type SweepCommand struct {
	Kind         reminders.Kind
	DatabasePath string
	Timeout      time.Duration
	Verbose      bool

	// Open builds the runner for the database; it returns a cleanup function.
	Open func(cfg *config.Config) (SweepRunner, func() error, error)
}

// NewSweepCommand creates a command for the given sweep kind.
func NewSweepCommand(kind reminders.Kind, open func(cfg *config.Config) (SweepRunner, func() error, error)) *SweepCommand {
	return &SweepCommand{Kind: kind, Open: open}
}

// ParseFlags parses command line flags
func (cmd *SweepCommand) ParseFlags(args []string) error {
	name := string(cmd.Kind) + "-sweep"
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the library database (defaults to DATABASE_PATH)")
	fs.DurationVar(&cmd.Timeout, "timeout", 10*time.Minute, "Maximum time for the sweep")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print the full sweep result")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n\n", os.Args[0], name)
		switch cmd.Kind {
		case reminders.KindReminder:
			fmt.Fprintf(os.Stderr, "Email borrowers whose loans fall due within the reminder window.\n\n")
		case reminders.KindOverdue:
			fmt.Fprintf(os.Stderr, "Email borrowers whose loans are past their due date.\n\n")
		}
		fmt.Fprintf(os.Stderr, "Each loan is notified at most once; rerunning the sweep is safe.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s %s\n", os.Args[0], name)
		fmt.Fprintf(os.Stderr, "  %s %s -db /var/lib/librarydesk/library.db -verbose\n", os.Args[0], name)
	}

	return fs.Parse(args)
}

// Run executes the sweep. Partial delivery failures are reported through the
// returned error so the process exits non-zero.
func (cmd *SweepCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	runner, cleanup, err := cmd.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cmd.Timeout)
	defer cancelTimeout()

	fmt.Printf("Running %s sweep against %s\n", cmd.Kind, cfg.Database.Path)

	result, err := runner.Run(ctx, cmd.Kind)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d loans: %d sent, %d failed\n", result.Scanned, result.Sent, result.Failed)
	if result.Duplicates > 0 {
		fmt.Printf("  %d already sent by another run\n", result.Duplicates)
	}
	if cmd.Verbose {
		fmt.Printf("  Run ID: %s\n  Day: %s\n  Took: %s\n", result.RunID, result.Day, result.FinishedAt.Sub(result.StartedAt))
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d notifications failed", result.Failed)
	}
	return nil
}
