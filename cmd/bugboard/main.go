package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugboard/internal/config"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bugboard",
		Short:        "Bugboard: a small bug tracker",
		Long:         "Bugboard tracks bug reports, their comments and workflow status from the terminal or a web dashboard.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "path to Bugboard config file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newBugCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newOverdueCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bugboard %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
