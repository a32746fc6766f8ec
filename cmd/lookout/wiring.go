package main

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/LookoutProject/lookout/pkg/checks"
	"github.com/LookoutProject/lookout/pkg/config"
	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/metrics"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

const cleanupMaxAge = 7 * 24 * time.Hour

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildEngine wires the standard provider set and the metrics sink.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*health.Orchestrator, *metrics.Prometheus) {
	prom := metrics.NewPrometheus()

	opts := []health.Option{
		health.WithLogger(logger),
		health.WithSink(prom),
	}
	if d := cfg.Engine.CheckTimeout.Duration(); d > 0 {
		opts = append(opts, health.WithCheckTimeout(d))
	}
	if cfg.Engine.Parallel {
		opts = append(opts, health.WithParallel(true))
	}

	orch := health.New(opts...)
	checks.RegisterDefaults(orch, cfg, nil)
	return orch, prom
}

// buildRegistry wires the recovery handlers the daemon layout supports.
// Actions without an automatic remediation get manual guidance.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*recovery.Registry, error) {
	reg := recovery.NewRegistry(logger)

	handlers := map[recovery.Action]recovery.Handler{
		recovery.ActionCleanStalePIDFile: recovery.CleanStalePIDFile(cfg.Daemon.PIDFile),
		recovery.ActionRotateLogs:        recovery.RotateLogs(cfg.Daemon.LogFile),
		recovery.ActionCleanupLogs:       recovery.CleanupLogs(cfg.Daemon.Home, cleanupMaxAge),
		recovery.ActionDrainQueue:        recovery.SignalDaemon(cfg.Daemon.PIDFile, syscall.SIGHUP),
		recovery.ActionDrainBacklog:      recovery.SignalDaemon(cfg.Daemon.PIDFile, syscall.SIGUSR1),

		recovery.ActionRunMigrations: recovery.Manual(logger,
			"run the daemon's migration command against the sessions database"),
		recovery.ActionCheckDBConnection: recovery.Manual(logger,
			"inspect the sessions database file and its filesystem"),
		recovery.ActionFreeMemory: recovery.Manual(logger,
			"identify and stop the processes consuming memory on this host"),
		recovery.ActionFixPermissions: recovery.Manual(logger,
			"restore ownership and mode on the daemon home directory"),
		recovery.ActionRebuildIndex: recovery.Manual(logger,
			"rebuild the sessions database indexes during a maintenance window"),
		recovery.ActionConfigureCredential: recovery.Manual(logger,
			"re-run credential configuration for the daemon"),
		recovery.ActionKillAndRestart: recovery.Manual(logger,
			"kill the daemon process group and start it again"),
	}
	if len(cfg.Daemon.StartCommand) > 0 {
		handlers[recovery.ActionStartDaemon] = recovery.StartDaemon(cfg.Daemon.StartCommand)
		handlers[recovery.ActionRestartDaemon] = recovery.RestartDaemon(cfg.Daemon.PIDFile, cfg.Daemon.StartCommand)
	}

	for action, handler := range handlers {
		if err := reg.Register(action, handler); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// runRecovery dispatches the recovery action attached to every
// non-healthy result and records the outcomes.
func runRecovery(ctx context.Context, reg *recovery.Registry, prom *metrics.Prometheus, report health.Report) map[string]recovery.Outcome {
	outcomes := make(map[string]recovery.Outcome)
	for _, result := range report.Checks {
		if result.Status == health.StatusHealthy || result.RecoveryAction == "" {
			continue
		}
		outcome := reg.Run(ctx, result)
		outcomes[result.Name] = outcome
		if prom != nil {
			prom.RecordRecovery(recovery.Action(result.RecoveryAction), outcome)
		}
	}
	return outcomes
}
