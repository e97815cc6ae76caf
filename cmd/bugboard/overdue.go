package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugboard/internal/digest"
)

func newOverdueCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Print the overdue bug digest",
		Long:  "Lists unfinished bugs whose due date has passed, most urgent first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.ParseInLocation(time.DateOnly, at, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want YYYY-MM-DD", at)
				}
				now = t
			}

			cfg, store, err := connectFromConfig(cmd)
			if err != nil {
				return err
			}
			rep, err := digest.Build(cmd.Context(), store, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, digest.Format(rep))
			if cfg.Digest.Enabled() {
				if next, err := digest.NextRun(cfg.Digest.Schedule, time.Now()); err == nil {
					fmt.Fprintf(out, "\nNext scheduled digest: %s\n", next.Format(time.RFC1123))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this date (YYYY-MM-DD) instead of now")
	return cmd
}
