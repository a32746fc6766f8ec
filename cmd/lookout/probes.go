package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/LookoutProject/lookout/pkg/health"
)

func livenessCmd() *cobra.Command {
	return probeCmd("liveness", "Run liveness checks", health.LevelLiveness,
		func(overall health.Status) bool {
			return overall == health.StatusHealthy
		})
}

func readinessCmd() *cobra.Command {
	return probeCmd("readiness", "Run readiness checks", health.LevelReadiness, passesDegraded)
}

func startupCmd() *cobra.Command {
	return probeCmd("startup", "Run startup checks", health.LevelStartup, passesDegraded)
}

func passesDegraded(overall health.Status) bool {
	return overall == health.StatusHealthy || overall == health.StatusDegraded
}

// probeCmd builds a single-level command whose exit code encodes the
// pass rule, for scripting and init systems.
func probeCmd(use, short string, level health.Level, pass func(health.Status) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			orch, _ := buildEngine(cfg, newLogger(slog.LevelWarn))

			report := orch.RunLevel(context.Background(), level)

			switch outputFormat {
			case "json":
				if err := outputReportJSON(report); err != nil {
					return err
				}
			case "table":
				outputReportTable(report)
			default:
				return fmt.Errorf("unsupported output format: %s", outputFormat)
			}

			if !pass(report.OverallStatus) {
				return exitError{code: 1}
			}
			return nil
		},
	}
}
