package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitewait/internal/monitor"
)

// runCmd runs every configured check once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every check once and report",
	Long: `Run every configured check once, print a report and exit.

Exit codes:
  0 - Every check passed
  1 - A check failed or errored, or the config is invalid

Example:
  sitewait run -c config.yaml`,
	SilenceUsage: true,
	RunE:         runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	_, m, err := loadMonitor(cmd, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := m.RunOnce(ctx)
	printReport(cmd.OutOrStdout(), report)

	if !report.OK() {
		return fmt.Errorf("%d of %d checks did not pass", report.Failed+report.Errored, len(report.Results))
	}
	return nil
}

// printReport writes one line per check followed by a summary.
func printReport(w io.Writer, report monitor.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tKIND\tSTATUS\tDURATION\tDETAIL")
	for _, r := range report.Results {
		status := string(r.Status)
		if r.FailureKind != "" {
			status += " (" + r.FailureKind.String() + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Kind, status, r.Duration.Round(time.Millisecond), r.Message)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d passed, %d failed, %d errored in %s\n",
		report.Passed, report.Failed, report.Errored, report.Duration.Round(time.Millisecond))
}
