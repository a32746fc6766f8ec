// Package checks provides the concrete health check providers for a
// lookout-monitored daemon: process liveness via PID file and /proc,
// database connectivity and schema over the sessions store, queue and
// backlog depth, and host resources (disk, memory, log growth).
//
// Every threshold and path is injected at construction; providers hold
// no global state and are safe to run concurrently.
package checks

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

func healthyResult(name string, level health.Level, message string, details health.Details) (health.CheckResult, error) {
	return health.CheckResult{
		Name:    name,
		Status:  health.StatusHealthy,
		Level:   level,
		Message: message,
		Details: details,
	}, nil
}

func degradedResult(name string, level health.Level, message string, action recovery.Action, details health.Details) (health.CheckResult, error) {
	return health.CheckResult{
		Name:           name,
		Status:         health.StatusDegraded,
		Level:          level,
		Message:        message,
		Details:        details,
		RecoveryAction: string(action),
	}, nil
}

func unhealthyResult(name string, level health.Level, message string, action recovery.Action, details health.Details) (health.CheckResult, error) {
	return health.CheckResult{
		Name:           name,
		Status:         health.StatusUnhealthy,
		Level:          level,
		Message:        message,
		Details:        details,
		RecoveryAction: string(action),
	}, nil
}

// readPID parses a PID file.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("malformed PID file %s: non-positive pid %d", path, pid)
	}
	return pid, nil
}
