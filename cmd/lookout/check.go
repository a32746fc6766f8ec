package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/LookoutProject/lookout/pkg/health"
)

func checkCmd() *cobra.Command {
	var withRecover bool

	cmd := &cobra.Command{
		Use:   "check {all|liveness|readiness|startup}",
		Short: "Run checks and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(slog.LevelWarn)
			orch, prom := buildEngine(cfg, logger)
			ctx := context.Background()

			var report health.Report
			if args[0] == "all" {
				report = orch.RunAll(ctx)
			} else {
				level, ok := health.ParseLevel(args[0])
				if !ok {
					return fmt.Errorf("unknown check level: %s", args[0])
				}
				report = orch.RunLevel(ctx, level)
			}

			if withRecover {
				reg, err := buildRegistry(cfg, logger)
				if err != nil {
					return err
				}
				runRecovery(ctx, reg, prom, report)
			}

			if err := outputReportJSON(report); err != nil {
				return err
			}

			if report.OverallStatus == health.StatusUnhealthy {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withRecover, "recover", false, "Dispatch recovery actions for failing checks")

	return cmd
}
