package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const logFileCheckName = "log_file"

const bytesPerMB = 1 << 20

// LogFile verifies that the daemon can keep writing its log and that
// the log has not grown past the rotation threshold.
type LogFile struct {
	path      string
	maxSizeMB float64
}

// NewLogFile creates the log file readiness check.
func NewLogFile(path string, maxSizeMB float64) *LogFile {
	return &LogFile{path: path, maxSizeMB: maxSizeMB}
}

func (c *LogFile) Name() string { return logFileCheckName }

func (c *LogFile) Level() health.Level { return health.LevelReadiness }

func (c *LogFile) Check(_ context.Context) (health.CheckResult, error) {
	dir := filepath.Dir(c.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return unhealthyResult(logFileCheckName, health.LevelReadiness,
			fmt.Sprintf("log directory %s does not exist", dir),
			recovery.ActionFixPermissions,
			health.Details{health.D("dir", dir)})
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return unhealthyResult(logFileCheckName, health.LevelReadiness,
			fmt.Sprintf("log directory %s is not writable", dir),
			recovery.ActionFixPermissions,
			health.Details{health.D("dir", dir)})
	}

	info, err := os.Stat(c.path)
	if os.IsNotExist(err) {
		return healthyResult(logFileCheckName, health.LevelReadiness,
			"log file not yet created",
			health.Details{health.D("size_mb", 0.0)})
	}
	if err != nil {
		return health.CheckResult{}, fmt.Errorf("stat %s: %w", c.path, err)
	}

	sizeMB := float64(info.Size()) / bytesPerMB
	details := health.Details{
		health.D("size_mb", round1(sizeMB)),
		health.D("threshold_mb", c.maxSizeMB),
	}
	if c.maxSizeMB > 0 && sizeMB > c.maxSizeMB {
		return degradedResult(logFileCheckName, health.LevelReadiness,
			fmt.Sprintf("log file is %.1fMB, rotation threshold is %.0fMB", sizeMB, c.maxSizeMB),
			recovery.ActionRotateLogs, details)
	}

	return healthyResult(logFileCheckName, health.LevelReadiness,
		fmt.Sprintf("log file is %.1fMB", sizeMB), details)
}
