package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarydesk/internal/cli"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
	"github.com/mrlokans/librarydesk/internal/reminders"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	config.LoadDotEnv()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "reminder-sweep":
		runSweep(reminders.KindReminder, args)

	case "overdue-sweep":
		runSweep(reminders.KindOverdue, args)

	case "version":
		fmt.Printf("librarydesk %s (%s)\n", Version, Commit)

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runSweep(kind reminders.Kind, args []string) {
	cmd := cli.NewSweepCommand(kind, openSweeper)
	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openSweeper(cfg *config.Config) (cli.SweepRunner, func() error, error) {
	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Sweeper, app.Close, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Start the HTTP server and reminder scheduler (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  reminder-sweep  Send due-soon reminders once and exit\n")
	fmt.Fprintf(os.Stderr, "  overdue-sweep   Send overdue notices once and exit\n")
	fmt.Fprintf(os.Stderr, "  version         Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
