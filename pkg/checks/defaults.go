package checks

import (
	"github.com/LookoutProject/lookout/pkg/clock"
	"github.com/LookoutProject/lookout/pkg/config"
	"github.com/LookoutProject/lookout/pkg/health"
)

// RegisterDefaults registers the standard provider set for a monitored
// daemon, wired from configuration. If clk is nil the real clock is
// used.
func RegisterDefaults(o *health.Orchestrator, cfg *config.Config, clk clock.Clock) {
	if clk == nil {
		clk = clock.Real()
	}

	o.Register(NewSchema(cfg.Daemon.DatabaseFile))

	o.Register(NewDatabase(cfg.Daemon.DatabaseFile, cfg.Thresholds.MaxConnectionLatencyMS, clk))
	o.Register(NewQueueDepth(cfg.Daemon.DatabaseFile, cfg.Thresholds.MaxQueueDepth))
	o.Register(NewBacklog(cfg.Daemon.DatabaseFile, cfg.Thresholds.MaxBacklog, clk))
	o.Register(NewDiskSpace(cfg.Daemon.Home, cfg.Thresholds.MinDiskGB))
	o.Register(NewMemoryPressure(cfg.Thresholds.MaxMemoryPercent))
	o.Register(NewLogFile(cfg.Daemon.LogFile, cfg.Thresholds.MaxLogSizeMB))

	o.Register(NewPIDFile(cfg.Daemon.PIDFile))
	o.Register(NewProcess(cfg.Daemon.PIDFile))
}
