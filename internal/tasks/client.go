package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// queueDSNParams keeps the queue store in WAL mode and lets workers wait on a
// busy file instead of failing.
const queueDSNParams = "_journal=WAL&_timeout=5000&_busy_timeout=5000"

// ErrUnknownQueue is returned when a task is enqueued for a queue that was
// never registered with the client.
var ErrUnknownQueue = errors.New("queue not registered")

// Client runs background sweeps and housekeeping on a backlite queue stored
// in its own SQLite file.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int

	mu     sync.RWMutex
	queues map[string]struct{}

	running atomic.Bool
}

// TasksDBPath returns the queue database path for a library database:
// library.db becomes library-tasks.db in the same directory.
func TasksDBPath(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"-tasks"+filepath.Ext(base))
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?"+queueDSNParams)
	if err != nil {
		return nil, fmt.Errorf("open queue database %s: %w", path, err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens the queue database next to the library database and
// installs the backlite schema. Lending transactions and queue writes never
// share a file.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.ReleaseAfter <= 0 {
		cfg.ReleaseAfter = defaults.ReleaseAfter
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	db, err := openQueueDB(TasksDBPath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task client: %w", err)
	}
	if err := bl.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	return &Client{
		backlite: bl,
		db:       db,
		workers:  cfg.Workers,
		queues:   make(map[string]struct{}),
	}, nil
}

// Register adds queues to the client. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range queues {
		c.backlite.Register(q)
		c.queues[q.Config().Name] = struct{}{}
	}
}

// Start runs the workers until ctx is cancelled or Stop is called. It blocks
// only long enough to launch them; a second call is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] queue started with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for in-flight tasks. It reports false when ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.CompareAndSwap(true, false) {
		return true
	}
	if !c.backlite.Stop(ctx) {
		log.Printf("[TASK] queue stopped before in-flight tasks finished")
		return false
	}
	log.Printf("[TASK] queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Enqueue stores a single task and returns its ID.
func (c *Client) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	name := task.Config().Name

	c.mu.RLock()
	_, ok := c.queues[name]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("enqueue %s: %w", name, ErrUnknownQueue)
	}

	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", name, err)
	}
	if len(ids) != 1 {
		return "", fmt.Errorf("enqueue %s: got %d task ids", name, len(ids))
	}
	return ids[0], nil
}

// Status reports where a task is in its lifecycle.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
