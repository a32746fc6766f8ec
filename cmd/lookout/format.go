package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pterm/pterm"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

func outputReportJSON(report health.Report) error {
	data, err := report.JSON()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputReportTable(report health.Report) {
	pterm.DefaultSection.Printfln("Overall: %s", statusLabel(report.OverallStatus))

	table := tablewriter.NewWriter(os.Stdout)
	table.Append([]string{"Check", "Level", "Status", "Message", "Recovery"})
	for _, check := range report.Checks {
		table.Append([]string{
			check.Name,
			string(check.Level),
			statusLabel(check.Status),
			check.Message,
			check.RecoveryAction,
		})
	}
	table.Render()

	fmt.Printf("\nRan %d checks in %.3fs\n", len(report.Checks), report.Duration.Duration().Seconds())
}

func statusLabel(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return pterm.FgGreen.Sprint("healthy")
	case health.StatusDegraded:
		return pterm.FgYellow.Sprint("degraded")
	case health.StatusUnhealthy:
		return pterm.FgRed.Sprint("unhealthy")
	default:
		return pterm.FgGray.Sprint("unknown")
	}
}

func printRecoveryOutcomes(outcomes map[string]recovery.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	pterm.DefaultSection.Println("Recovery")
	for name, outcome := range outcomes {
		line := fmt.Sprintf("%s: %s", name, outcomeLabel(outcome))
		if outcome.OK() {
			pterm.Success.Println(line)
		} else {
			pterm.Warning.Println(line)
		}
	}
}

func outcomeLabel(outcome recovery.Outcome) string {
	switch outcome {
	case recovery.OutcomeSucceeded:
		return "recovered"
	case recovery.OutcomeManualIntervention:
		return "manual intervention required"
	case recovery.OutcomeFailed:
		return "recovery failed"
	default:
		return "no recovery attempted"
	}
}
