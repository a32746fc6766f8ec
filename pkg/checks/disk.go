package checks

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sys/unix"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const diskCheckName = "disk_space"

const bytesPerGB = 1 << 30

// DiskSpace watches free space on the filesystem holding the daemon's
// home directory.
type DiskSpace struct {
	mount     string
	minFreeGB float64

	// statfs is swappable for tests.
	statfs func(path string, stat *unix.Statfs_t) error
}

// NewDiskSpace creates the disk space readiness check.
func NewDiskSpace(mount string, minFreeGB float64) *DiskSpace {
	return &DiskSpace{mount: mount, minFreeGB: minFreeGB, statfs: unix.Statfs}
}

func (c *DiskSpace) Name() string { return diskCheckName }

func (c *DiskSpace) Level() health.Level { return health.LevelReadiness }

func (c *DiskSpace) Check(_ context.Context) (health.CheckResult, error) {
	var stat unix.Statfs_t
	if err := c.statfs(c.mount, &stat); err != nil {
		return health.CheckResult{}, fmt.Errorf("statfs %s: %w", c.mount, err)
	}

	blockSize := uint64(stat.Bsize)
	freeGB := float64(stat.Bavail*blockSize) / bytesPerGB
	totalGB := float64(stat.Blocks*blockSize) / bytesPerGB
	usedPercent := 0.0
	if stat.Blocks > 0 {
		usedPercent = float64(stat.Blocks-stat.Bavail) / float64(stat.Blocks) * 100
	}

	details := health.Details{
		health.D("free_gb", round1(freeGB)),
		health.D("total_gb", round1(totalGB)),
		health.D("percent", round1(usedPercent)),
		health.D("mount", c.mount),
	}

	switch {
	case freeGB < c.minFreeGB:
		return unhealthyResult(diskCheckName, health.LevelReadiness,
			fmt.Sprintf("only %.1fGB free on %s, minimum is %.1fGB", freeGB, c.mount, c.minFreeGB),
			recovery.ActionCleanupLogs, details)
	case freeGB < 2*c.minFreeGB:
		return degradedResult(diskCheckName, health.LevelReadiness,
			fmt.Sprintf("%.1fGB free on %s is close to the %.1fGB minimum", freeGB, c.mount, c.minFreeGB),
			recovery.ActionCleanupLogs, details)
	}

	return healthyResult(diskCheckName, health.LevelReadiness,
		fmt.Sprintf("%.1fGB free on %s", freeGB, c.mount), details)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
