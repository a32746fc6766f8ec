// Package health implements a multi-level health-check engine.
//
// Checks are grouped into three levels following the Kubernetes probe
// pattern: startup checks run once during initialization, readiness
// checks gate traffic acceptance, and liveness checks gate restart
// decisions. Providers are registered with an Orchestrator, which runs
// them per level, isolates individual check failures, and aggregates
// their statuses into a Report.
package health

// Level identifies when a check is relevant.
type Level string

const (
	LevelStartup   Level = "startup"
	LevelReadiness Level = "readiness"
	LevelLiveness  Level = "liveness"
)

// Levels lists all levels in execution order for full runs.
var Levels = []Level{LevelStartup, LevelReadiness, LevelLiveness}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelStartup, LevelReadiness, LevelLiveness:
		return true
	}
	return false
}

// ParseLevel converts a string tag to a Level.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	return l, l.Valid()
}

// Status is the outcome classification of a check or report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Aggregate computes the overall status for a set of results.
//
// The rule is asymmetric and is not a severity max: any unhealthy result
// makes the whole set unhealthy, any degraded result (with no unhealthy)
// makes it degraded, and only a set in which every result is healthy is
// healthy. Everything else, including an empty set and a healthy set
// containing a single unknown result, aggregates to unknown. Treating
// "don't know" as a denial of a clean verdict is intentional; do not
// simplify this to a max over severities.
func Aggregate(results []CheckResult) Status {
	if len(results) == 0 {
		return StatusUnknown
	}

	hasUnhealthy := false
	hasDegraded := false
	allHealthy := true

	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
			allHealthy = false
		case StatusDegraded:
			hasDegraded = true
			allHealthy = false
		case StatusHealthy:
		default:
			allHealthy = false
		}
	}

	switch {
	case hasUnhealthy:
		return StatusUnhealthy
	case hasDegraded:
		return StatusDegraded
	case allHealthy:
		return StatusHealthy
	default:
		return StatusUnknown
	}
}
