package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputFormat string
)

// exitError carries a specific process exit code out of a command
// without printing anything further.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "lookout",
		Short: "Daemon health monitoring CLI",
		Long: `Lookout runs multi-level health checks against a monitored daemon,
dispatches recovery actions, and serves probe endpoints for
orchestrators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults apply when unset)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(livenessCmd())
	rootCmd.AddCommand(readinessCmd())
	rootCmd.AddCommand(startupCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
