package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Run all checks and dump Prometheus exposition text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			orch, prom := buildEngine(cfg, newLogger(slog.LevelWarn))

			orch.RunAll(context.Background())

			text, err := prom.Gather()
			if err != nil {
				return fmt.Errorf("gathering metrics: %w", err)
			}
			fmt.Print(text)
			return nil
		},
	}
}
