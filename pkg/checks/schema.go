package checks

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const schemaCheckName = "schema"

// sessionsColumns are the columns the engine reads from the sessions
// table. A database missing any of them predates the current schema.
var sessionsColumns = []string{"id", "status", "created_at", "updated_at"}

// Schema verifies that the sessions database carries the expected
// table and columns before the daemon starts serving.
type Schema struct {
	path string
}

// NewSchema creates the schema startup check.
func NewSchema(path string) *Schema {
	return &Schema{path: path}
}

func (c *Schema) Name() string { return schemaCheckName }

func (c *Schema) Level() health.Level { return health.LevelStartup }

func (c *Schema) Check(ctx context.Context) (health.CheckResult, error) {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return degradedResult(schemaCheckName, health.LevelStartup,
			"database not yet created",
			recovery.ActionRunMigrations,
			health.Details{health.D("path", c.path)})
	}

	db, err := openSessionsDB(c.path)
	if err != nil {
		return health.CheckResult{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'").Scan(&name)
	if err != nil {
		return unhealthyResult(schemaCheckName, health.LevelStartup,
			"sessions table missing",
			recovery.ActionRunMigrations,
			health.Details{health.D("path", c.path)})
	}

	present := make(map[string]bool)
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(sessions)")
	if err != nil {
		return health.CheckResult{}, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return health.CheckResult{}, fmt.Errorf("scanning table info: %w", err)
		}
		present[colName] = true
	}
	if err := rows.Err(); err != nil {
		return health.CheckResult{}, fmt.Errorf("reading table info: %w", err)
	}

	var missing []string
	for _, col := range sessionsColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return degradedResult(schemaCheckName, health.LevelStartup,
			fmt.Sprintf("sessions table missing columns: %s", strings.Join(missing, ", ")),
			recovery.ActionRunMigrations,
			health.Details{health.D("missing_columns", missing)})
	}

	return healthyResult(schemaCheckName, health.LevelStartup,
		"schema up to date", nil)
}
