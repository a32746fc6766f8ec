package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LookoutProject/lookout/pkg/clock"
	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/notify"
	"github.com/LookoutProject/lookout/pkg/probe"
)

const shutdownTimeout = 10 * time.Second

func serverCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve health probe endpoints over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			logger := newLogger(slog.LevelInfo)
			orch, prom := buildEngine(cfg, logger)

			var runner health.Runner = orch
			if ttl := cfg.Engine.CacheTTL.Duration(); ttl > 0 {
				runner = health.NewCache(orch, ttl, clock.Real())
			}

			server := probe.NewServer(cfg.Server.Address, runner,
				probe.WithMetrics(prom.Handler()),
				probe.WithNotifier(notify.NewLogNotifier(logger)),
				probe.WithLogger(logger),
			)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case sig := <-sigChan:
				logger.Info("shutting down", slog.String("signal", sig.String()))
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return err
				}
			}

			logger.Info("probe server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}
