package checks

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/LookoutProject/lookout/pkg/clock"
	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const databaseCheckName = "database"

// Database verifies that the sessions database answers a trivial query
// within the configured latency budget.
type Database struct {
	path         string
	maxLatencyMS float64
	clock        clock.Clock
}

// NewDatabase creates the database connectivity check. If clk is nil
// the real clock is used.
func NewDatabase(path string, maxLatencyMS float64, clk clock.Clock) *Database {
	if clk == nil {
		clk = clock.Real()
	}
	return &Database{path: path, maxLatencyMS: maxLatencyMS, clock: clk}
}

func (c *Database) Name() string { return databaseCheckName }

func (c *Database) Level() health.Level { return health.LevelReadiness }

func (c *Database) Check(ctx context.Context) (health.CheckResult, error) {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return degradedResult(databaseCheckName, health.LevelReadiness,
			"database not yet created",
			recovery.ActionRunMigrations,
			health.Details{health.D("path", c.path)})
	}

	db, err := openSessionsDB(c.path)
	if err != nil {
		return unhealthyResult(databaseCheckName, health.LevelReadiness,
			fmt.Sprintf("cannot open database: %v", err),
			recovery.ActionCheckDBConnection,
			health.Details{health.D("path", c.path)})
	}
	defer db.Close()

	start := c.clock.Now()
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return unhealthyResult(databaseCheckName, health.LevelReadiness,
			fmt.Sprintf("query failed: %v", err),
			recovery.ActionCheckDBConnection,
			health.Details{health.D("path", c.path)})
	}
	latencyMS := float64(c.clock.Since(start).Microseconds()) / 1000

	details := health.Details{
		health.D("latency_ms", latencyMS),
		health.D("type", "sqlite"),
	}
	if c.maxLatencyMS > 0 && latencyMS > c.maxLatencyMS {
		return degradedResult(databaseCheckName, health.LevelReadiness,
			fmt.Sprintf("query latency %.1fms exceeds %.0fms", latencyMS, c.maxLatencyMS),
			recovery.ActionCheckDBConnection, details)
	}

	return healthyResult(databaseCheckName, health.LevelReadiness,
		"database responding", details)
}

// openSessionsDB opens the sessions store read-only. Checks never hold
// connections across invocations.
func openSessionsDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
