// Package main is the entry point for the sitewait CLI.
//
// sitewait drives a real browser through a shop's key journeys and reports
// which of them still work.
//
// Usage:
//
//	sitewait run -c config.yaml      # Run every check once
//	sitewait serve -c config.yaml    # Run checks on a schedule with a dashboard
//	sitewait validate -c config.yaml # Validate configuration
//	sitewait checks                  # List check kinds
//	sitewait version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sitewait",
	Short: "Browser checks for a web shop",
	Long: `sitewait runs browser checks against a web shop: logging in, sorting
the inventory, adding to the cart and handling dialogs. Each element
lookup is retried until it is ready or its wait runs out.

Quick start:
  1. Create a config file (sitewait.yaml)
  2. Run: sitewait run -c sitewait.yaml
  3. Or keep watching: sitewait serve -c sitewait.yaml

Example config:
  base_url: https://www.saucedemo.com
  interval: 5m
  checks:
    - name: Login
      kind: login_valid
    - name: Sort Z-A
      kind: sort_za`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sitewait binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sitewait %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().Bool("debug", false, "log every check result, not only failures")
}
