package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitewait/config"
)

// validateCmd validates a config file without launching a browser.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a sitewait configuration file without launching a browser.

This command parses the YAML, expands environment variables, checks every
check kind is known and validates all fields. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sitewait validate -c config.yaml
  sitewait validate --config /etc/sitewait/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	direct := len(cfg.Checks)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Site:     %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Browser:  %s (headless: %t)\n", cfg.Browser.Engine, *cfg.Browser.Headless)
	fmt.Fprintf(out, "  Port:     %d\n", cfg.Port)
	fmt.Fprintf(out, "  Interval: %s\n", cfg.Interval.Duration())
	fmt.Fprintf(out, "  Wait:     %s every %s\n", cfg.Wait.Timeout.Duration(), cfg.Wait.PollInterval.Duration())
	fmt.Fprintf(out, "  Checks:   %d direct + %d from grids = %d total\n",
		direct, len(jobs)-direct, len(jobs))

	return nil
}
