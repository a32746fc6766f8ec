package checks

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const memoryCheckName = "memory_pressure"

// MemoryPressure watches host memory usage via /proc/meminfo.
type MemoryPressure struct {
	maxPercent  float64
	meminfoPath string
}

// NewMemoryPressure creates the memory pressure readiness check.
func NewMemoryPressure(maxPercent float64) *MemoryPressure {
	return &MemoryPressure{maxPercent: maxPercent, meminfoPath: "/proc/meminfo"}
}

// NewMemoryPressureWithPath creates the check against an alternate
// meminfo file, for tests.
func NewMemoryPressureWithPath(maxPercent float64, meminfoPath string) *MemoryPressure {
	return &MemoryPressure{maxPercent: maxPercent, meminfoPath: meminfoPath}
}

func (c *MemoryPressure) Name() string { return memoryCheckName }

func (c *MemoryPressure) Level() health.Level { return health.LevelReadiness }

func (c *MemoryPressure) Check(_ context.Context) (health.CheckResult, error) {
	percent, err := c.readUsedPercent()
	if err != nil {
		return health.CheckResult{}, err
	}

	details := health.Details{
		health.D("percent", round1(percent)),
		health.D("threshold", c.maxPercent),
	}

	switch {
	case percent > c.maxPercent:
		return unhealthyResult(memoryCheckName, health.LevelReadiness,
			fmt.Sprintf("memory usage %.1f%% exceeds %.0f%%", percent, c.maxPercent),
			recovery.ActionFreeMemory, details)
	case percent > 0.8*c.maxPercent:
		return degradedResult(memoryCheckName, health.LevelReadiness,
			fmt.Sprintf("memory usage %.1f%% approaching %.0f%%", percent, c.maxPercent),
			recovery.ActionFreeMemory, details)
	}

	return healthyResult(memoryCheckName, health.LevelReadiness,
		fmt.Sprintf("memory usage %.1f%%", percent), details)
}

// readUsedPercent computes used memory from MemTotal and MemAvailable.
func (c *MemoryPressure) readUsedPercent() (float64, error) {
	file, err := os.Open(c.meminfoPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", c.meminfoPath, err)
	}
	defer file.Close()

	var memTotal, memAvailable uint64
	var foundTotal, foundAvailable bool

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			memTotal = value
			foundTotal = true
		case "MemAvailable":
			memAvailable = value
			foundAvailable = true
		}
		if foundTotal && foundAvailable {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", c.meminfoPath, err)
	}
	if !foundTotal || memTotal == 0 {
		return 0, fmt.Errorf("MemTotal not found in %s", c.meminfoPath)
	}
	if !foundAvailable {
		return 0, fmt.Errorf("MemAvailable not found in %s", c.meminfoPath)
	}

	return float64(memTotal-memAvailable) / float64(memTotal) * 100, nil
}
