package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const pidFileCheckName = "pidfile"

// PIDFile verifies that the daemon's PID file names a live process.
type PIDFile struct {
	path string
}

// NewPIDFile creates the PID file liveness check.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

func (c *PIDFile) Name() string { return pidFileCheckName }

func (c *PIDFile) Level() health.Level { return health.LevelLiveness }

func (c *PIDFile) Check(_ context.Context) (health.CheckResult, error) {
	pid, err := readPID(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return unhealthyResult(pidFileCheckName, health.LevelLiveness,
			"PID file not found, daemon not running",
			recovery.ActionStartDaemon,
			health.Details{health.D("path", c.path)})
	case err != nil:
		return unhealthyResult(pidFileCheckName, health.LevelLiveness,
			fmt.Sprintf("unreadable PID file: %v", err),
			recovery.ActionCleanStalePIDFile,
			health.Details{health.D("path", c.path)})
	}

	// Signal 0 probes existence without delivering anything.
	if err := syscall.Kill(pid, 0); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return unhealthyResult(pidFileCheckName, health.LevelLiveness,
				fmt.Sprintf("stale PID file, process %d is gone", pid),
				recovery.ActionCleanStalePIDFile,
				health.Details{health.D("pid", pid), health.D("path", c.path)})
		}
		// EPERM means the process exists but is owned by someone else.
		if !errors.Is(err, syscall.EPERM) {
			return unhealthyResult(pidFileCheckName, health.LevelLiveness,
				fmt.Sprintf("cannot probe process %d: %v", pid, err),
				recovery.ActionRestartDaemon,
				health.Details{health.D("pid", pid)})
		}
	}

	return healthyResult(pidFileCheckName, health.LevelLiveness,
		fmt.Sprintf("daemon running with pid %d", pid),
		health.Details{health.D("pid", pid)})
}
