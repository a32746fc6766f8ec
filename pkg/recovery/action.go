// Package recovery maps recovery-action tags carried on check results
// to remediation handlers and dispatches them safely.
//
// The orchestrator never triggers recovery on its own; a caller inspects
// a report and decides which results to act on. By convention that is
// results with unhealthy status, but the registry does not enforce it.
package recovery

// Action is a tag naming a remediation. The vocabulary is closed:
// providers may only emit these tags and handlers may only register
// under them, so a typo surfaces at registration time instead of
// becoming a silent no-op.
type Action string

const (
	ActionStartDaemon         Action = "start-daemon"
	ActionRestartDaemon       Action = "restart-daemon"
	ActionKillAndRestart      Action = "kill-and-restart"
	ActionCleanStalePIDFile   Action = "clean-stale-pidfile"
	ActionDrainQueue          Action = "drain-queue"
	ActionDrainBacklog        Action = "drain-backlog"
	ActionRotateLogs          Action = "rotate-logs"
	ActionCleanupLogs         Action = "cleanup-logs"
	ActionFreeMemory          Action = "free-memory"
	ActionCheckDBConnection   Action = "check-db-connection"
	ActionRunMigrations       Action = "run-migrations"
	ActionFixPermissions      Action = "fix-permissions"
	ActionRebuildIndex        Action = "rebuild-index"
	ActionConfigureCredential Action = "configure-credential"
)

// actions is the closed set consulted at registration time.
var actions = map[Action]struct{}{
	ActionStartDaemon:         {},
	ActionRestartDaemon:       {},
	ActionKillAndRestart:      {},
	ActionCleanStalePIDFile:   {},
	ActionDrainQueue:          {},
	ActionDrainBacklog:        {},
	ActionRotateLogs:          {},
	ActionCleanupLogs:         {},
	ActionFreeMemory:          {},
	ActionCheckDBConnection:   {},
	ActionRunMigrations:       {},
	ActionFixPermissions:      {},
	ActionRebuildIndex:        {},
	ActionConfigureCredential: {},
}

// Valid reports whether a is part of the action vocabulary.
func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}
