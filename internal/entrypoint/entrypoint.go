package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/database"
	auditrepo "github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/database/catalog"
	"github.com/mrlokans/librarydesk/internal/database/sweeps"
	"github.com/mrlokans/librarydesk/internal/fines"
	http_controllers "github.com/mrlokans/librarydesk/internal/http"
	"github.com/mrlokans/librarydesk/internal/lending"
	"github.com/mrlokans/librarydesk/internal/notify"
	"github.com/mrlokans/librarydesk/internal/reminders"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the services shared by the HTTP server and the sweep commands.
type App struct {
	DB       *database.Database
	Lending  *lending.Service
	Audit    *audit.Service
	Sweeper  *reminders.Sweeper
	Location *time.Location
}

// NewApp opens the database and wires the lending service, the audit trail
// and the reminder sweeper from cfg.
func NewApp(cfg *config.Config) (*App, error) {
	loc, err := cfg.Library.Location()
	if err != nil {
		return nil, err
	}
	rate, err := cfg.Library.FineRate()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	if cfg.Audit.Dir != "" {
		auditService.SetArchive(audit.NewArchive(cfg.Audit.Dir))
	}

	policy := lending.Policy{
		LoanPeriodDays:    cfg.Library.LoanPeriodDays,
		CardValidityYears: cfg.Library.CardValidityYears,
		Location:          loc,
		Fines:             fines.NewCalculator(rate),
		FineGrace:         cfg.Library.FineGrace,
	}
	lendingService := lending.NewService(database.NewLendingStore(db), policy, lending.SystemClock)
	lendingService.SetAuditor(auditService)

	sqlDB, err := db.DB.DB()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get SQL DB for sweeps: %w", err)
	}
	sweeper := reminders.NewSweeper(sweeps.NewRepository(sqlDB), newSender(cfg.SMTP), reminders.Config{
		WindowDays:  cfg.Library.ReminderWindowDays,
		Location:    loc,
		RatePerHour: rate,
	})
	sweeper.SetAuditor(auditService)

	return &App{
		DB:       db,
		Lending:  lendingService,
		Audit:    auditService,
		Sweeper:  sweeper,
		Location: loc,
	}, nil
}

// Close waits for pending audit writes and closes the database.
func (a *App) Close() error {
	a.Audit.Close()
	return a.DB.Close()
}

func newSender(cfg config.SMTP) notify.Sender {
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	}
	if !smtpCfg.Enabled() {
		log.Printf("WARNING: SMTP_HOST is not set. Reminder emails will be logged instead of sent.")
		return notify.LogSender{}
	}
	log.Printf("Reminder emails will be sent through %s:%d", cfg.Host, cfg.Port)
	return notify.NewSMTPSender(smtpCfg)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library Desk v%s", version)

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	routerCfg := http_controllers.RouterConfig{
		Database: app.DB,
		Lending:  app.Lending,
		Cards:    app.Lending,
		Books:    catalog.NewRepository(app.DB.DB),
		Sweeps:   app.Sweeper,
		ReadOnly: cfg.Demo.Enabled,
		Version:  version,
	}
	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled - write operations will be blocked")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:            cfg.Tasks.Workers,
			ReleaseAfter:       cfg.Tasks.ReleaseAfter,
			CleanupInterval:    cfg.Tasks.CleanupInterval,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSweepQueue(app.Sweeper),
			tasks.NewPruneAuditTrailQueue(app.Audit),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if _, err := taskClient.Enqueue(taskCtx, tasks.PruneAuditTrailTask{RetentionDays: cfg.Audit.RetentionDays}); err != nil {
			log.Printf("WARNING: could not enqueue audit trail prune: %v", err)
		}

		routerCfg.TaskQueue = taskClient
		routerCfg.Tasks = taskClient
	}

	reminderScheduler := scheduler.NewReminderScheduler(app.Sweeper, scheduler.Config{
		Enabled:          cfg.Reminders.Enabled && !cfg.Demo.Enabled,
		ReminderSchedule: cfg.Reminders.ReminderSchedule,
		OverdueSchedule:  cfg.Reminders.OverdueSchedule,
		Location:         app.Location,
		Timeout:          cfg.Reminders.SweepTimeout,
	})
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := reminderScheduler.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		reminderScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
