package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitewait/internal/checks"
)

// checksCmd lists the check kinds a config may use.
var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List available check kinds",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tDESCRIPTION")
		for _, c := range checks.All() {
			fmt.Fprintf(tw, "%s\t%s\n", c.Kind, c.Description)
		}
		_ = tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(checksCmd)
}
