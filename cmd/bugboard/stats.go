package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugboard/internal/dashboard"
)

func newStatsCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show bug counts by status and priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := connectFromConfig(cmd)
			if err != nil {
				return err
			}
			bugs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			s := dashboard.Summarize(bugs, now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d  Active: %d  Done: %d  Overdue: %d\n\n", s.Total, s.Active, s.Done, s.Overdue)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tCOUNT")
			for _, sc := range s.ByStatus {
				fmt.Fprintf(tw, "%s\t%d\n", sc.Status, sc.Count)
			}
			fmt.Fprintln(tw, "\t")
			fmt.Fprintln(tw, "PRIORITY\tCOUNT")
			for _, pc := range s.ByPriority {
				fmt.Fprintf(tw, "%s\t%d\n", pc.Priority, pc.Count)
			}
			tw.Flush()

			if recent > 0 {
				fmt.Fprintln(out, "\nRecently updated:")
				printBugTable(out, dashboard.RecentBugs(bugs, recent), now)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", dashboard.RecentLimit, "number of recently updated bugs to show (0 to hide)")
	return cmd
}
