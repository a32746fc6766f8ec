package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const processCheckName = "process"

// Process inspects the daemon's /proc state for zombie or stopped
// processes that a bare signal-0 probe would still count as alive.
type Process struct {
	pidFile  string
	procRoot string
}

// NewProcess creates the process state liveness check.
func NewProcess(pidFile string) *Process {
	return &Process{pidFile: pidFile, procRoot: "/proc"}
}

// NewProcessWithRoot creates the check against an alternate proc root,
// for tests.
func NewProcessWithRoot(pidFile, procRoot string) *Process {
	return &Process{pidFile: pidFile, procRoot: procRoot}
}

func (c *Process) Name() string { return processCheckName }

func (c *Process) Level() health.Level { return health.LevelLiveness }

func (c *Process) Check(_ context.Context) (health.CheckResult, error) {
	pid, err := readPID(c.pidFile)
	if err != nil {
		// The pidfile check owns reporting on the PID file itself.
		return health.CheckResult{}, fmt.Errorf("reading PID file: %w", err)
	}

	state, err := c.readState(pid)
	if errors.Is(err, os.ErrNotExist) {
		return unhealthyResult(processCheckName, health.LevelLiveness,
			fmt.Sprintf("process %d not found", pid),
			recovery.ActionRestartDaemon,
			health.Details{health.D("pid", pid)})
	}
	if err != nil {
		return health.CheckResult{}, err
	}

	switch state {
	case "Z":
		return unhealthyResult(processCheckName, health.LevelLiveness,
			fmt.Sprintf("process %d is a zombie", pid),
			recovery.ActionKillAndRestart,
			health.Details{health.D("pid", pid), health.D("state", state)})
	case "T", "t":
		return degradedResult(processCheckName, health.LevelLiveness,
			fmt.Sprintf("process %d is stopped", pid),
			recovery.ActionKillAndRestart,
			health.Details{health.D("pid", pid), health.D("state", state)})
	}

	return healthyResult(processCheckName, health.LevelLiveness,
		fmt.Sprintf("process %d state %s", pid, state),
		health.Details{health.D("pid", pid), health.D("state", state)})
}

// readState returns the single-letter state field from /proc/<pid>/stat.
func (c *Process) readState(pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.procRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", err
	}

	// The comm field is parenthesized and may contain spaces, so the
	// state is the first field after the last ')'.
	text := string(data)
	idx := strings.LastIndexByte(text, ')')
	if idx < 0 || idx+2 >= len(text) {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(text[idx+1:])
	if len(fields) == 0 {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	return fields[0], nil
}
