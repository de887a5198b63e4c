package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitreq/packages/output"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output.NewConsoleFormatter(output.WithWriter(cmd.OutOrStdout())).FormatHeader(version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildTime)
		},
	}
}
