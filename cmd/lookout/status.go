package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/LookoutProject/lookout/pkg/health"
)

func statusCmd() *cobra.Command {
	var withRecover bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run all health checks and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(slog.LevelWarn)
			orch, prom := buildEngine(cfg, logger)

			ctx := context.Background()
			report := orch.RunAll(ctx)

			if withRecover {
				reg, err := buildRegistry(cfg, logger)
				if err != nil {
					return err
				}
				outcomes := runRecovery(ctx, reg, prom, report)
				printRecoveryOutcomes(outcomes)
			}

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

			if report.OverallStatus == health.StatusUnhealthy {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withRecover, "recover", false, "Dispatch recovery actions for failing checks")

	return cmd
}
