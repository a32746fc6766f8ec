package checks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LookoutProject/lookout/pkg/clock"
	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const (
	queueDepthCheckName = "queue_depth"
	backlogCheckName    = "backlog"

	// Pending rows older than this count as backlog rather than queue.
	backlogAge = time.Hour
)

// QueueDepth watches the number of pending sessions waiting for
// processing.
type QueueDepth struct {
	path     string
	maxDepth int
}

// NewQueueDepth creates the queue depth readiness check.
func NewQueueDepth(path string, maxDepth int) *QueueDepth {
	return &QueueDepth{path: path, maxDepth: maxDepth}
}

func (c *QueueDepth) Name() string { return queueDepthCheckName }

func (c *QueueDepth) Level() health.Level { return health.LevelReadiness }

func (c *QueueDepth) Check(ctx context.Context) (health.CheckResult, error) {
	depth, skip, err := countPending(ctx, c.path,
		"SELECT COUNT(*) FROM sessions WHERE status = 'pending'")
	if err != nil {
		return health.CheckResult{}, err
	}
	if skip {
		return healthyResult(queueDepthCheckName, health.LevelReadiness,
			"no database, queue empty",
			health.Details{health.D("depth", 0)})
	}

	details := health.Details{
		health.D("depth", depth),
		health.D("threshold", c.maxDepth),
	}
	if depth > c.maxDepth {
		return degradedResult(queueDepthCheckName, health.LevelReadiness,
			fmt.Sprintf("queue depth %d exceeds %d", depth, c.maxDepth),
			recovery.ActionDrainQueue, details)
	}
	return healthyResult(queueDepthCheckName, health.LevelReadiness,
		fmt.Sprintf("queue depth %d", depth), details)
}

// Backlog watches for pending sessions that have sat unprocessed long
// enough to indicate a stuck consumer.
type Backlog struct {
	path       string
	maxBacklog int
	clock      clock.Clock
}

// NewBacklog creates the backlog readiness check. If clk is nil the
// real clock is used.
func NewBacklog(path string, maxBacklog int, clk clock.Clock) *Backlog {
	if clk == nil {
		clk = clock.Real()
	}
	return &Backlog{path: path, maxBacklog: maxBacklog, clock: clk}
}

func (c *Backlog) Name() string { return backlogCheckName }

func (c *Backlog) Level() health.Level { return health.LevelReadiness }

func (c *Backlog) Check(ctx context.Context) (health.CheckResult, error) {
	cutoff := c.clock.Now().Add(-backlogAge).UTC().Format(time.RFC3339)
	count, skip, err := countPending(ctx, c.path,
		"SELECT COUNT(*) FROM sessions WHERE status = 'pending' AND updated_at < ?", cutoff)
	if err != nil {
		return health.CheckResult{}, err
	}
	if skip {
		return healthyResult(backlogCheckName, health.LevelReadiness,
			"no database, no backlog",
			health.Details{health.D("count", 0)})
	}

	details := health.Details{
		health.D("count", count),
		health.D("threshold", c.maxBacklog),
	}
	if count > c.maxBacklog {
		return degradedResult(backlogCheckName, health.LevelReadiness,
			fmt.Sprintf("backlog of %d stale sessions exceeds %d", count, c.maxBacklog),
			recovery.ActionDrainBacklog, details)
	}
	return healthyResult(backlogCheckName, health.LevelReadiness,
		fmt.Sprintf("backlog of %d stale sessions", count), details)
}

// countPending runs a COUNT query against the sessions store. A missing
// database file reports skip=true rather than an error; before first
// daemon start there is simply nothing queued.
func countPending(ctx context.Context, path, query string, args ...any) (count int, skip bool, err error) {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return 0, true, nil
	}

	db, err := openSessionsDB(path)
	if err != nil {
		return 0, false, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, false, fmt.Errorf("counting sessions: %w", err)
	}
	return count, false, nil
}
